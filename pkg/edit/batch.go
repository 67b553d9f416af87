package edit

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/deadsy/sdfx/sdf"
	"golang.org/x/sync/errgroup"
)

// Transformed is one result of TransformAll.
type Transformed struct {
	Index int // position of the source solid in the input
	Solid Solid
}

// batch is the shared result list of TransformAll. Appending holds mu for the
// whole read-modify-append sequence.
type batch struct {
	mu    sync.Mutex
	items []Transformed
}

func (b *batch) append(t Transformed) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, t)
}

// TransformAll applies m to copies of solids in parallel and returns the
// copies in input order. The inputs are not modified. The first failure
// cancels the remaining work.
func TransformAll(ctx context.Context, solids []Solid, m sdf.M44) ([]Transformed, error) {
	g, ctx := errgroup.WithContext(ctx)
	out := &batch{items: make([]Transformed, 0, len(solids))}
	for i, src := range solids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dup, err := cloneSolid(src)
			if err != nil {
				return fmt.Errorf("copy solid %d: %w", i, err)
			}
			if err := dup.Transform(m); err != nil {
				return fmt.Errorf("transform solid %d: %w", i, err)
			}
			out.append(Transformed{Index: i, Solid: dup})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.SortFunc(out.items, func(a, b Transformed) int { return cmp.Compare(a.Index, b.Index) })
	return out.items, nil
}
