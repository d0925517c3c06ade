package bot

import "strings"

// Command - разобранная команда пользователя.
type Command struct {
	Name string   // имя без префикса, в нижнем регистре
	Args []string // слова первой строки после имени
	Rest string   // весь текст после имени (включая следующие строки)
	Body string   // строки после первой
}

// CommandParser парсит русские команды с префиксами !, . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Многострочный текст (аффирмации для !практика) попадает в Body.
func (p *CommandParser) ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return Command{}, false
	}

	header, body, _ := strings.Cut(text, "\n")
	parts := strings.Fields(header)
	if len(parts) == 0 {
		return Command{}, false
	}

	name := strings.ToLower(parts[0])
	// /start@my_bot в группах
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	name = strings.ReplaceAll(name, "ё", "е")

	cmd := Command{Name: name, Body: strings.TrimSpace(body)}
	if len(parts) > 1 {
		cmd.Args = parts[1:]
	}
	cmd.Rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), parts[0]))
	return cmd, true
}
