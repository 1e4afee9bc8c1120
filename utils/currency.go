package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrUnsupportedCurrency возвращается при неизвестном коде валюты
var ErrUnsupportedCurrency = errors.New("неподдерживаемая валюта")

// SupportedCurrencies содержит список поддерживаемых кодов валют
var SupportedCurrencies = []string{"CLP", "USD", "BRL"}

// IsSupportedCurrency проверяет, поддерживается ли код валюты
func IsSupportedCurrency(currency string) bool {
	for _, c := range SupportedCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

// FormatCurrency форматирует сумму по коду валюты.
// Сумма округляется до двух знаков; точка разделяет тысячи, запятая — дроби.
// Дробная часть выводится только если она не нулевая, без хвостовых нулей.
func FormatCurrency(amount float64, currency string) (string, error) {
	// Определяем префикс по коду валюты
	var prefix string
	switch currency {
	case "CLP", "USD":
		prefix = "$"
	case "BRL":
		prefix = "R$"
	default:
		return "", ErrUnsupportedCurrency
	}

	// Округляем до двух знаков
	rounded := math.Round(amount*100) / 100

	// Запоминаем знак и работаем с модулем
	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	// Разбиваем на целую часть и копейки
	cents := int64(math.Round(rounded * 100))
	integerPart := cents / 100
	fraction := cents % 100

	// Форматируем целую часть с разделителями тысяч
	formatted := groupThousands(integerPart)

	// Добавляем дробную часть, если она есть
	if fraction != 0 {
		if fraction%10 == 0 {
			// Отбрасываем хвостовой ноль: 50 -> ",5"
			formatted += "," + strconv.FormatInt(fraction/10, 10)
		} else if fraction < 10 {
			formatted += ",0" + strconv.FormatInt(fraction, 10)
		} else {
			formatted += "," + strconv.FormatInt(fraction, 10)
		}
	}

	if negative {
		formatted = "-" + formatted
	}

	return prefix + formatted, nil
}

// groupThousands вставляет точку между группами по три цифры
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
