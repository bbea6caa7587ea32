package results

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// Header is the comment line that opens every export.
const Header = "#actual_tre,fre,expected_tre,expected_fre,mean_fle,no_fids"

// Export writes the header line and one CRLF-terminated row per result.
func Export(w io.Writer, entries []models.TrialResult) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header + "\r\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	cw := csv.NewWriter(bw)
	cw.UseCRLF = true
	for _, r := range entries {
		if err := cw.Write(formatRow(r)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	return bw.Flush()
}

func formatRow(r models.TrialResult) []string {
	return []string{
		formatFloat(r.ActualTRE),
		formatFloat(r.FRE),
		formatFloat(r.ExpectedTRE),
		formatFloat(r.ExpectedFRE),
		formatFloat(r.MeanFLE),
		strconv.Itoa(r.FiducialCount),
	}
}

// formatFloat uses the shortest representation that parses back exactly.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Parse reads an export back into results, skipping comment lines.
func Parse(r io.Reader) ([]models.TrialResult, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 6
	var out []models.TrialResult
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read results: %w", err)
		}
		res, err := parseRow(rec)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("results line %d: %w", line, err)
		}
		out = append(out, res)
	}
}

func parseRow(rec []string) (models.TrialResult, error) {
	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return models.TrialResult{}, err
		}
		vals[i] = v
	}
	count, err := strconv.Atoi(rec[5])
	if err != nil {
		return models.TrialResult{}, err
	}
	return models.TrialResult{
		ActualTRE:     vals[0],
		FRE:           vals[1],
		ExpectedTRE:   vals[2],
		ExpectedFRE:   vals[3],
		MeanFLE:       vals[4],
		FiducialCount: count,
	}, nil
}
