package testutil

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/guarzo/pcmatch/internal/model"
)

// TestDataFactory provides methods for generating dynamic test data
type TestDataFactory struct {
	rand *rand.Rand
}

// NewTestDataFactory creates a new test data factory with a seeded random generator
func NewTestDataFactory(seed int64) *TestDataFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestDataFactory{
		rand: rand.New(rand.NewSource(seed)),
	}
}

const tokenAlphabet = "0123456789abcdef"

// GenerateTestToken generates a random 40 character API token
func (f *TestDataFactory) GenerateTestToken() string {
	b := make([]byte, 40)
	for i := range b {
		b[i] = tokenAlphabet[f.rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}

// GenerateTestID generates a numeric catalog product id
func (f *TestDataFactory) GenerateTestID() string {
	return strconv.Itoa(f.rand.Intn(9000000) + 1000000)
}

// GenerateTestCardNumber generates a random card number for testing
func (f *TestDataFactory) GenerateTestCardNumber() string {
	return fmt.Sprintf("%d", f.rand.Intn(150)+1)
}

// GenerateTestSetName generates a random set name
func (f *TestDataFactory) GenerateTestSetName() string {
	sets := []string{"Base Set", "Jungle", "Fossil", "Team Rocket", "Evolving Skies", "Scarlet & Violet 151"}
	return sets[f.rand.Intn(len(sets))]
}

// GenerateTestCardName generates a random card name
func (f *TestDataFactory) GenerateTestCardName() string {
	names := []string{"Pikachu", "Charizard", "Blastoise", "Venusaur", "Mewtwo", "Umbreon VMAX"}
	return names[f.rand.Intn(len(names))]
}

// GenerateTestPrice generates a random price in cents
func (f *TestDataFactory) GenerateTestPrice() int {
	return f.rand.Intn(50000) + 500 // Between $5 and $505
}

// GenerateTestYear generates a release year, occasionally zero
func (f *TestDataFactory) GenerateTestYear() int {
	if f.rand.Intn(5) == 0 {
		return 0
	}
	return 1999 + f.rand.Intn(26)
}

// GenerateTestGrade generates a grading company and grade, or empty
// strings for a raw card
func (f *TestDataFactory) GenerateTestGrade() (company, grade string) {
	companies := []string{"", "PSA", "BGS", "CGC"}
	grades := []string{"8", "9", "9.5", "10"}
	company = companies[f.rand.Intn(len(companies))]
	if company == "" {
		return "", ""
	}
	return company, grades[f.rand.Intn(len(grades))]
}

// GenerateCardQuery generates a card description with random fields set
func (f *TestDataFactory) GenerateCardQuery() model.CardQuery {
	q := model.CardQuery{Name: f.GenerateTestCardName()}
	if f.rand.Intn(2) == 0 {
		q.Set = f.GenerateTestSetName()
	}
	q.Year = f.GenerateTestYear()
	q.GradingCompany, q.Grade = f.GenerateTestGrade()
	return q
}

// GenerateProduct generates a catalog product object as the API returns it
func (f *TestDataFactory) GenerateProduct() map[string]interface{} {
	name := "Pokemon " + f.GenerateTestCardName() + " " + f.GenerateTestSetName()
	if company, grade := f.GenerateTestGrade(); company != "" {
		name += " " + company + " " + grade
	}
	name += " #" + f.GenerateTestCardNumber()

	return map[string]interface{}{
		"id":           f.GenerateTestID(),
		"product-name": name,
		"console-name": "Pokemon " + f.GenerateTestSetName(),
		"loose-price":  f.GenerateTestPrice(),
		"graded-price": f.GenerateTestPrice(),
	}
}
