package model

// Outcome результат атомарного разрешения короткой ссылки.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeRedirect
	OutcomeLimitReached
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeLimitReached:
		return "limit_reached"
	default:
		return "not_found"
	}
}

// Resolution ответ резолвера. Destination заполнен только для OutcomeRedirect.
type Resolution struct {
	Outcome     Outcome
	Destination string
	OwnerID     string
}

// ScanRequest запрос на подсчёт скана. DomainID ограничивает поиск ссылками,
// привязанными к конкретному домену (маршрутизация по кастомному домену).
type ScanRequest struct {
	ShortID  string
	DomainID string
}
