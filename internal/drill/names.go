package drill

import (
	"context"
	"strconv"

	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/ir"
)

// PageName pairs a page with its printed name.
type PageName struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PageNames returns printed names in timeline order.
func (s *Service) PageNames(ctx context.Context) engine.Result[[]PageName] {
	pages, err := pagesInOrder(ctx, s.engine.Store())
	if err != nil {
		return engine.Fail[[]PageName](err)
	}
	return engine.Ok(NamePages(pages))
}

// NamePages names pages the way drill charts print them: full pages count
// up from 1 and subset pages take the number of the page before them plus
// a letter, e.g. 1, 2, 2A, 2B, 3. The first page is always a full page.
func NamePages(pages []ir.Page) []PageName {
	names := make([]PageName, len(pages))
	number := 0
	letters := ""
	for i, p := range pages {
		if p.IsSubset && i > 0 {
			letters = nextLetters(letters)
		} else {
			number++
			letters = ""
		}
		names[i] = PageName{ID: p.ID, Name: strconv.Itoa(number) + letters}
	}
	return names
}

// nextLetters increments a base-26 letter run: "" -> A, A -> B, Z -> AA,
// AZ -> BA, ZZ -> AAA.
func nextLetters(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 'Z' {
			b[i]++
			return string(b)
		}
		b[i] = 'A'
	}
	return "A" + string(b)
}
