package domain

import (
	"errors"
	"time"
)

// DateLayout é o formato externo das datas (DD.MM.YYYY).
const DateLayout = "02.01.2006"

const secondsPerDay = 24 * 60 * 60

// Date é uma data de calendário sem hora. O valor zero não é uma data válida;
// use ParseDate ou NewDate.
type Date struct {
	t time.Time
}

// NewDate monta uma Date a partir de ano/mês/dia. Valores fora do intervalo são
// normalizados como em time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate interpreta text no formato DD.MM.YYYY.
//
// Dia e mês precisam de dois dígitos e o ano de quatro; datas inexistentes
// (ex: 30.02.2024) e o ano 0000 são rejeitados.
func ParseDate(text string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, text, time.UTC)
	if err != nil {
		return Date{}, &ParseError{Value: text, Err: err}
	}
	if t.Year() < 1 {
		return Date{}, &ParseError{Value: text, Err: errors.New("year out of range")}
	}
	return Date{t: t}, nil
}

// Time devolve a data como meia-noite UTC.
func (d Date) Time() time.Time { return d.t }

// String formata a data como DD.MM.YYYY, o mesmo formato aceito por ParseDate.
func (d Date) String() string { return d.t.Format(DateLayout) }

// AddDays retorna a data deslocada em n dias.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysBetween retorna last - first em dias inteiros (negativo se last vier antes).
//
// Usa segundos Unix em vez de time.Sub: Duration satura em ~292 anos.
func DaysBetween(first, last Date) int {
	return int((last.t.Unix() - first.t.Unix()) / secondsPerDay)
}

// WeekdayOf retorna o nome do dia da semana em inglês (ex: "Monday").
func WeekdayOf(d Date) string {
	return d.t.Weekday().String()
}
