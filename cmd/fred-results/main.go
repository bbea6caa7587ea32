// Command fred-results lists the games stored in the results database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/config"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/database"
	logger "github.com/SciKit-Surgery/scikit-surgeryfred/internal/logging"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/repository"
)

func main() {
	root := flag.String("root", ".", "directory holding config/config.yaml")
	since := flag.String("since", "", "only list games started on or after this date (YYYY-MM-DD)")
	flag.Parse()

	log := logger.NewConsole()
	defer log.Sync()

	var from time.Time
	if *since != "" {
		var err error
		if from, err = time.Parse(time.DateOnly, *since); err != nil {
			log.Fatal("Invalid -since date", zap.Error(err))
		}
	}

	store, err := config.Init(*root, log)
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	conf := store.Current()

	db, err := database.Open(conf.Database, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer database.Close(db)

	games, err := repository.NewStore(db, conf.Server.FredVersion).ListGames(context.Background(), from)
	if err != nil {
		log.Fatal("Failed to list games", zap.Error(err))
	}
	if err := writeGames(os.Stdout, games); err != nil {
		log.Fatal("Failed to write games", zap.Error(err))
	}
}

// writeGames prints one row per scored ablation and a total per game.
func writeGames(w io.Writer, games []repository.GameSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "time\tfred version\tstate\tscore\tmargin")
	for _, g := range games {
		for _, r := range g.Records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g\n",
				r.CreatedAt.UTC().Format(time.RFC3339), g.Version, r.State, r.Score, r.Margin)
		}
		fmt.Fprintf(tw, "%s\t%s\ttotal\t%g\t\n", g.StartedAt.UTC().Format(time.RFC3339), g.Version, g.Total())
	}
	return tw.Flush()
}
