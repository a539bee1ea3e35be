package workspace

import (
	"fmt"

	"github.com/lgulliver/pdfbinder/pkg/types"
)

// move relocates one document (and its thumbnail) to a new index
type move struct {
	from types.Document
	to   types.Document
}

// isDense reports whether docs carry exactly the indices 1..len(docs) in order
func isDense(docs []types.Document) bool {
	for i, doc := range docs {
		if doc.Index != i+1 {
			return false
		}
	}
	return true
}

// validatePermutation checks that positions names each of 1..n exactly once
func validatePermutation(positions []int, n int) error {
	if len(positions) != n {
		return fmt.Errorf("%w: order has %d positions, workspace has %d documents", ErrInvalidInput, len(positions), n)
	}

	seen := make([]bool, n+1)
	for _, pos := range positions {
		if pos < 1 || pos > n {
			return fmt.Errorf("%w: position %d out of range 1..%d", ErrInvalidInput, pos, n)
		}
		if seen[pos] {
			return fmt.Errorf("%w: position %d listed twice", ErrInvalidInput, pos)
		}
		seen[pos] = true
	}
	return nil
}

// reorderPlan gives the document at listing position positions[i] the index i+1.
// Documents that keep their index are left out of the plan.
func reorderPlan(docs []types.Document, positions []int) ([]move, error) {
	if err := validatePermutation(positions, len(docs)); err != nil {
		return nil, err
	}

	var moves []move
	for i, pos := range positions {
		doc := docs[pos-1]
		if doc.Index != i+1 {
			moves = append(moves, move{from: doc, to: doc.WithIndex(i + 1)})
		}
	}
	return moves, nil
}

// compactionPlan renumbers docs, taken in listing order, to 1..len(docs)
func compactionPlan(docs []types.Document) []move {
	var moves []move
	for i, doc := range docs {
		if doc.Index != i+1 {
			moves = append(moves, move{from: doc, to: doc.WithIndex(i + 1)})
		}
	}
	return moves
}
