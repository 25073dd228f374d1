// Package generator produces the synthetic personal-data filler attached to
// every completed survey. All values are random demo data; none of them follow
// real document numbering rules.
package generator

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// Filler is the set of auto-filled fields of one survey record.
type Filler struct {
	PhoneNumber       string
	Email             string
	Address           string
	PassportSeries    string
	PassportNumber    string
	PassportIssuedBy  string
	PassportIssueDate string
	INN               string
	SNILS             string
	Education         string
	Occupation        string
	IncomeLevel       string
	MaritalStatus     string
	ChildrenCount     int
}

var (
	phonePrefixes   = []string{"+7", "+375", "+380", "+48", "+49"}
	emailDomains    = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "yandex.ru"}
	cities          = []string{"Москва", "Санкт-Петербург", "Новосибирск", "Екатеринбург", "Казань"}
	streets         = []string{"Ленина", "Пушкина", "Гагарина", "Мира", "Советская"}
	educationLevels = []string{"Среднее", "Среднее специальное", "Высшее", "Бакалавриат", "Магистратура"}
	occupations     = []string{"Инженер", "Программист", "Менеджер", "Учитель", "Врач", "Юрист"}
	incomeLevels    = []string{"Низкий", "Средний", "Высокий", "Очень высокий"}
	maritalStatuses = []string{"Холост/Не замужем", "Женат/Замужем", "Разведен/Разведена", "Вдовец/Вдова"}
)

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New returns a generator seeded from the runtime's random source.
func New() *Generator {
	return NewSeeded(rand.Uint64(), rand.Uint64())
}

// NewSeeded returns a deterministic generator, mostly useful in tests.
func NewSeeded(seed1, seed2 uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed1, seed2)), now: time.Now}
}

// Generate builds a filler for fullName. The email local part is derived from
// the name.
func (g *Generator) Generate(fullName string) Filler {
	g.mu.Lock()
	defer g.mu.Unlock()

	city := g.pick(cities)
	return Filler{
		PhoneNumber:       g.phone(),
		Email:             g.email(fullName),
		Address:           fmt.Sprintf("%s, ул. %s, д. %d, кв. %d", city, g.pick(streets), 1+g.rng.IntN(200), 1+g.rng.IntN(100)),
		PassportSeries:    g.digits(4),
		PassportNumber:    g.digits(6),
		PassportIssuedBy:  "УФМС России по " + g.pick(cities),
		PassportIssueDate: g.now().AddDate(-(1 + g.rng.IntN(10)), 0, 0).Format("02.01.2006"),
		INN:               g.digits(12),
		SNILS:             g.snils(),
		Education:         g.pick(educationLevels),
		Occupation:        g.pick(occupations),
		IncomeLevel:       g.pick(incomeLevels),
		MaritalStatus:     g.pick(maritalStatuses),
		ChildrenCount:     g.rng.IntN(6),
	}
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.IntN(len(values))]
}

func (g *Generator) digits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + g.rng.IntN(10)))
	}
	return b.String()
}

func (g *Generator) phone() string {
	prefix := g.pick(phonePrefixes)
	if prefix == "+7" {
		return prefix + g.digits(10)
	}
	return prefix + g.digits(9)
}

func (g *Generator) email(fullName string) string {
	local := strings.ToLower(strings.Join(strings.Fields(fullName), ""))
	if local == "" {
		local = "user"
	}
	return fmt.Sprintf("%s%s@%s", local, g.digits(3), g.pick(emailDomains))
}

func (g *Generator) snils() string {
	d := g.digits(9)
	return fmt.Sprintf("%s-%s-%s %s", d[:3], d[3:6], d[6:9], g.digits(2))
}
