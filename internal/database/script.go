package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ExecScript runs a multi-statement SQL script (for example a dump used to
// seed a fresh catalog) inside one transaction. It returns the number of
// statements executed.
func (d *Database) ExecScript(script string) (int, error) {
	statements := SplitStatements(script)

	err := d.DB.Transaction(func(tx *gorm.DB) error {
		for i, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(statements), nil
}

// SplitStatements splits a SQL script on semicolons that are outside of
// quoted strings and comments. Inside a string both a doubled quote and a
// backslash escape the next character, as in MySQL dumps; a string that
// ends in a lone backslash is therefore not supported. Empty statements
// are dropped.
func SplitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
		quote      rune
		inLine     bool // -- comment
		inBlock    bool // /* comment */
	)

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case inLine:
			if r == '\n' {
				inLine = false
				current.WriteRune(r)
			}
			continue
		case inBlock:
			if r == '*' && next == '/' {
				inBlock = false
				i++
			}
			continue
		case quote != 0:
			current.WriteRune(r)
			// mysqldump escapes quotes inside strings with a backslash
			if r == '\\' && quote != '`' && next != 0 {
				current.WriteRune(next)
				i++
				continue
			}
			if r == quote {
				// doubled quote is an escaped quote
				if next == quote {
					current.WriteRune(next)
					i++
				} else {
					quote = 0
				}
			}
			continue
		}

		switch {
		case r == '-' && next == '-':
			inLine = true
			i++
		case r == '/' && next == '*':
			inBlock = true
			i++
		case r == '\'' || r == '"' || r == '`':
			quote = r
			current.WriteRune(r)
		case r == ';':
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
