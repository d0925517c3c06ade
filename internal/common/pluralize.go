// Package common - pluralize.go содержит вспомогательные функции
// форматирования чисел для сообщений бота.
package common

import "fmt"

// FormatPointsAmount создаёт строку вида "+100 очков" или "-50 очков".
//
// Примеры:
//
//	FormatPointsAmount(100)  → "+100 очков"
//	FormatPointsAmount(-50)  → "-50 очков"
//	FormatPointsAmount(1)    → "+1 очко"
func FormatPointsAmount(amount int64) string {
	if amount >= 0 {
		return fmt.Sprintf("+%s %s", FormatNumber(amount), PluralizePoints(amount))
	}
	return fmt.Sprintf("%s %s", FormatNumber(amount), PluralizePoints(amount))
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}
