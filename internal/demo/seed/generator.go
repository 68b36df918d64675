package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Customer is one row of the demo customers table.
type Customer struct {
	ID               int64  `parquet:"id"`
	Name             string `parquet:"name"`
	Email            string `parquet:"email"`
	City             string `parquet:"city"`
	RegistrationDate string `parquet:"registration_date"`
}

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Ken", "Margaret", "Dennis", "Frances", "Linus", "Radia", "John"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Thompson", "Hamilton", "Ritchie", "Allen", "Torvalds", "Perlman", "Backus"}
)

// Generator produces a reproducible customer stream for a given seed.
type Generator struct {
	rnd      *rand.Rand
	sequence int64
	now      func() time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(seed)),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (g *Generator) NextCustomer() Customer {
	g.sequence++
	first := pickOne(g.rnd, firstNames)
	last := pickOne(g.rnd, lastNames)
	registered := g.now().AddDate(0, 0, -g.rnd.Intn(730))

	return Customer{
		ID:               g.sequence,
		Name:             first + " " + last,
		Email:            fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), g.sequence),
		City:             g.pickCity(),
		RegistrationDate: registered.Format(dateLayout),
	}
}

// Customers returns the next n customers.
func (g *Generator) Customers(n int) []Customer {
	out := make([]Customer, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.NextCustomer())
	}
	return out
}

// pickCity skews towards a few large cities so "top cities" has a clear answer.
func (g *Generator) pickCity() string {
	p := g.rnd.Intn(100)
	switch {
	case p < 25:
		return "New York"
	case p < 43:
		return "San Francisco"
	case p < 58:
		return "Chicago"
	case p < 70:
		return "Austin"
	case p < 80:
		return "Seattle"
	case p < 88:
		return "Boston"
	case p < 95:
		return "Denver"
	default:
		return "Portland"
	}
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
