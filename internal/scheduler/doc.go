// Package scheduler builds the block-balanced, randomized order of display
// configurations a game session plays through. Every configuration appears
// the same number of times; the baseline configuration is held back and
// played once all the shuffled trials are done.
package scheduler
