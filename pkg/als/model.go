// Package als implements alternating least squares for implicit feedback
// (Hu, Koren, Volinsky 2008) with support for partial refits of individual
// user and item rows.
//
// Feedback values are signed: positive values are observed preference with
// confidence alpha*value, negative values are observed dislike with
// confidence alpha*|value| and preference 0.
package als

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnknownUser is returned when a user row is outside the model.
	ErrUnknownUser = errors.New("als: user not present in model")
	// ErrShapeMismatch is returned when factor slices disagree with the declared shape.
	ErrShapeMismatch = errors.New("als: factor matrix shape mismatch")
	// ErrNotPositiveDefinite is returned when a normal-equation system cannot be factorised.
	ErrNotPositiveDefinite = errors.New("als: system is not positive definite")
)

// Params are fixed at model creation and never re-tuned incrementally.
type Params struct {
	Factors        int     `json:"factors"`
	Regularization float64 `json:"regularization"`
	Iterations     int     `json:"iterations"`
	Alpha          float64 `json:"alpha"`
	Seed           uint64  `json:"seed"`
}

// DefaultParams mirrors factors=10, regularization=0.1, iterations=50.
func DefaultParams() Params {
	return Params{Factors: 10, Regularization: 0.1, Iterations: 50, Alpha: 1, Seed: 42}
}

// Model holds row-major user and item factor matrices. Row indices are the
// integer ids of users and items.
type Model struct {
	Params      Params    `json:"params"`
	Users       int       `json:"users"`
	Items       int       `json:"items"`
	UserFactors []float64 `json:"user_factors"`
	ItemFactors []float64 `json:"item_factors"`
	FittedAt    time.Time `json:"fitted_at"`
}

// Recommendation is a scored item.
type Recommendation struct {
	ItemID int     `json:"item_id"`
	Score  float64 `json:"score"`
}

// NewModel returns an empty model.
func NewModel(p Params) *Model {
	return &Model{Params: p}
}

// Validate checks the factor slices against the declared shape.
func (m *Model) Validate() error {
	if m.Params.Factors <= 0 {
		return fmt.Errorf("%w: factors=%d", ErrShapeMismatch, m.Params.Factors)
	}
	if len(m.UserFactors) != m.Users*m.Params.Factors {
		return fmt.Errorf("%w: user factors len=%d want %d", ErrShapeMismatch, len(m.UserFactors), m.Users*m.Params.Factors)
	}
	if len(m.ItemFactors) != m.Items*m.Params.Factors {
		return fmt.Errorf("%w: item factors len=%d want %d", ErrShapeMismatch, len(m.ItemFactors), m.Items*m.Params.Factors)
	}
	return nil
}

// Clone returns a deep copy.
func (m *Model) Clone() *Model {
	c := *m
	c.UserFactors = append([]float64(nil), m.UserFactors...)
	c.ItemFactors = append([]float64(nil), m.ItemFactors...)
	return &c
}

// Grow extends the factor matrices with zero rows so they cover at least
// users×items. It never shrinks.
func (m *Model) Grow(users, items int) {
	k := m.Params.Factors
	if users > m.Users {
		m.UserFactors = append(m.UserFactors, make([]float64, (users-m.Users)*k)...)
		m.Users = users
	}
	if items > m.Items {
		m.ItemFactors = append(m.ItemFactors, make([]float64, (items-m.Items)*k)...)
		m.Items = items
	}
}

// UserVector returns the factor row of a user (shared memory).
func (m *Model) UserVector(u int) []float64 {
	k := m.Params.Factors
	return m.UserFactors[u*k : (u+1)*k]
}

// ItemVector returns the factor row of an item (shared memory).
func (m *Model) ItemVector(i int) []float64 {
	k := m.Params.Factors
	return m.ItemFactors[i*k : (i+1)*k]
}

// Fit trains from scratch on a users×items feedback matrix.
func (m *Model) Fit(ctx context.Context, userItems *CSR) error {
	k := m.Params.Factors
	m.Users, m.Items = userItems.Rows, userItems.Cols
	m.UserFactors = make([]float64, m.Users*k)
	m.ItemFactors = make([]float64, m.Items*k)

	rng := rand.New(rand.NewPCG(m.Params.Seed, m.Params.Seed^0x9e3779b97f4a7c15))
	for i := range m.UserFactors {
		m.UserFactors[i] = rng.NormFloat64() * 0.01
	}
	for i := range m.ItemFactors {
		m.ItemFactors[i] = rng.NormFloat64() * 0.01
	}

	itemUsers := userItems.Transpose()
	users := sequence(m.Users)
	items := sequence(m.Items)

	for it := 0; it < m.Params.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.solveRows(ctx, m.UserFactors, m.ItemFactors, m.Items, userItems, users); err != nil {
			return fmt.Errorf("iteration %d users: %w", it, err)
		}
		if err := m.solveRows(ctx, m.ItemFactors, m.UserFactors, m.Users, itemUsers, items); err != nil {
			return fmt.Errorf("iteration %d items: %w", it, err)
		}
	}
	m.FittedAt = time.Now().UTC()
	return nil
}

// PartialFitUsers re-solves the given user rows against the current item
// factors, growing the model when userItems is larger than it.
func (m *Model) PartialFitUsers(ctx context.Context, userItems *CSR, userIDs []int) error {
	m.Grow(maxInt(userItems.Rows, maxID(userIDs)+1), userItems.Cols)
	if err := m.solveRows(ctx, m.UserFactors, m.ItemFactors, m.Items, userItems, userIDs); err != nil {
		return err
	}
	m.FittedAt = time.Now().UTC()
	return nil
}

// PartialFitItems re-solves the given item rows against the current user
// factors, growing the model when itemUsers is larger than it.
func (m *Model) PartialFitItems(ctx context.Context, itemUsers *CSR, itemIDs []int) error {
	m.Grow(itemUsers.Cols, maxInt(itemUsers.Rows, maxID(itemIDs)+1))
	if err := m.solveRows(ctx, m.ItemFactors, m.UserFactors, m.Users, itemUsers, itemIDs); err != nil {
		return err
	}
	m.FittedAt = time.Now().UTC()
	return nil
}

// Recommend scores every item for the user and returns the best n with a
// strictly positive score, skipping excluded items and the zero id.
func (m *Model) Recommend(userID, n int, exclude map[int]struct{}) ([]Recommendation, error) {
	if userID < 0 || userID >= m.Users {
		return nil, fmt.Errorf("%w: user=%d users=%d", ErrUnknownUser, userID, m.Users)
	}
	if n <= 0 {
		return []Recommendation{}, nil
	}

	uv := m.UserVector(userID)
	scored := make([]Recommendation, 0, m.Items)
	for i := 1; i < m.Items; i++ {
		if _, skip := exclude[i]; skip {
			continue
		}
		score := dot(uv, m.ItemVector(i))
		if score <= 0 {
			continue
		}
		scored = append(scored, Recommendation{ItemID: i, Score: score})
	}

	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].ItemID < scored[b].ItemID
	})
	if len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}

// solveRows solves the regularised weighted least squares problem for each
// listed row of target, holding the other side fixed.
func (m *Model) solveRows(ctx context.Context, target, other []float64, otherRows int, feedback *CSR, rows []int) error {
	k := m.Params.Factors
	g := gram(other, otherRows, k)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, r := range rows {
		r := r
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cols, vals := feedback.Row(r)
			return m.solveRow(g, other, cols, vals, target[r*k:(r+1)*k])
		})
	}
	return eg.Wait()
}

// solveRow computes x = (G + λI + Σ (c-1) y yᵀ)⁻¹ Σ_{c>0} c y.
func (m *Model) solveRow(g *mat.SymDense, other []float64, cols []int, vals []float64, dst []float64) error {
	k := m.Params.Factors
	a := mat.NewSymDense(k, nil)
	a.CopySym(g)
	for i := 0; i < k; i++ {
		a.SetSym(i, i, a.At(i, i)+m.Params.Regularization)
	}

	b := mat.NewVecDense(k, nil)
	for j, col := range cols {
		c := m.Params.Alpha * vals[j]
		if c == 0 {
			continue
		}
		y := mat.NewVecDense(k, other[col*k:(col+1)*k])
		if c > 0 {
			b.AddScaledVec(b, c, y)
		} else {
			c = -c
		}
		if c != 1 {
			a.SymRankOne(a, c-1, y)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return ErrNotPositiveDefinite
	}
	x := mat.NewVecDense(k, nil)
	if err := chol.SolveVecTo(x, b); err != nil {
		return err
	}
	copy(dst, x.RawVector().Data)
	return nil
}

// gram returns Yᵀ Y for a row-major rows×k factor matrix.
func gram(factors []float64, rows, k int) *mat.SymDense {
	g := mat.NewSymDense(k, nil)
	if rows == 0 {
		return g
	}
	y := mat.NewDense(rows, k, factors[:rows*k])
	g.SymOuterK(1, y.T())
	return g
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sequence(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func maxID(ids []int) int {
	best := -1
	for _, id := range ids {
		if id > best {
			best = id
		}
	}
	return best
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
