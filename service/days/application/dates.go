package application

import (
	"fmt"

	"days-api/service/days/domain"
)

// Fields é o corpo JSON decodificado, ainda sem tipo.
type Fields map[string]any

// DateService valida os campos recebidos e aplica a aritmética de datas.
//
// Campo presente que não é string (inclusive null) é *ParseError, mesmo que
// outro campo esteja ausente; depois disso, campo ausente é ErrMissingData.
type DateService struct{}

// Between devolve last - first em dias.
func (DateService) Between(in Fields) (int, error) {
	if err := requireStrings(in, "first", "last"); err != nil {
		return 0, err
	}
	first, err := domain.ParseDate(in["first"].(string))
	if err != nil {
		return 0, err
	}
	last, err := domain.ParseDate(in["last"].(string))
	if err != nil {
		return 0, err
	}
	return domain.DaysBetween(first, last), nil
}

// Weekday devolve o dia da semana do campo "date".
func (DateService) Weekday(in Fields) (string, error) {
	if err := requireStrings(in, "date"); err != nil {
		return "", err
	}
	d, err := domain.ParseDate(in["date"].(string))
	if err != nil {
		return "", err
	}
	return domain.WeekdayOf(d), nil
}

func requireStrings(in Fields, keys ...string) error {
	missing := false
	for _, k := range keys {
		v, ok := in[k]
		if !ok {
			missing = true
			continue
		}
		if _, isString := v.(string); !isString {
			return &domain.ParseError{Value: fmt.Sprint(v), Err: fmt.Errorf("%s: expected string, got %T", k, v)}
		}
	}
	if missing {
		return domain.ErrMissingData
	}
	return nil
}
