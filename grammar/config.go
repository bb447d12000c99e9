package grammar

import (
	verr "github.com/nihei9/oxi/error"
	"github.com/nihei9/oxi/spec/grammar/parser"
)

const DefaultName = "generated_parser"

// Config is the result of folding the singular directives. Precedence directives are not part of Config;
// see PrecedenceTable.
type Config struct {
	Name            string
	Public          bool
	TokenType       string
	StartProduction string
}

// ResolveConfig folds `%name`, `%public`, `%token_type`, and `%start` into a Config. The last occurrence of
// each directive wins. Resolution only reads the tree, so resolving the same tree twice yields equal configs.
//
// A grammar without productions is rejected before defaults are applied; `%start` never substitutes for
// a missing production set.
func ResolveConfig(root *parser.RootNode) (*Config, error) {
	prods := root.Productions()
	if len(prods) == 0 {
		return nil, verr.SpecErrors{
			{
				Cause: semErrNoProduction,
			},
		}
	}

	config := &Config{
		Name: DefaultName,
	}
	var startPos parser.Position
	hasTokenType := false
	for _, dir := range root.Directives() {
		switch dir.Name {
		case "name":
			config.Name = dir.Parameters[0].ID
		case "public":
			config.Public = true
		case "token_type":
			config.TokenType = dir.Parameters[0].Type
			hasTokenType = true
		case "start":
			config.StartProduction = dir.Parameters[0].ID
			startPos = dir.Parameters[0].Pos
		}
	}

	if !hasTokenType {
		return nil, verr.SpecErrors{
			{
				Cause:  semErrMissingRequiredConfig,
				Detail: "token_type",
			},
		}
	}

	if config.StartProduction == "" {
		config.StartProduction = prods[0].LHS
		return config, nil
	}

	for _, prod := range prods {
		if prod.LHS == config.StartProduction {
			return config, nil
		}
	}
	return nil, verr.SpecErrors{
		{
			Cause:  semErrUndefinedSym,
			Detail: config.StartProduction,
			Row:    startPos.Row,
			Col:    startPos.Col,
		},
	}
}
