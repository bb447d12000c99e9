package parser

type SyntaxError struct {
	message string
}

func newSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		message: message,
	}
}

func (e *SyntaxError) Error() string {
	return e.message
}

var (
	// lexical errors
	synErrUnclosedAction = newSyntaxError("unclosed action code; '}' is missing")
	synErrZeroPos        = newSyntaxError("a position must be greater than or equal to 1")

	// syntax errors
	synErrInvalidToken      = newSyntaxError("invalid token")
	synErrInvalidTermStart  = newSyntaxError("a term must start with a directive marker '%' or a production name")
	synErrNoColon           = newSyntaxError("the colon must follow a production name")
	synErrNoProductionType  = newSyntaxError("a production needs a result type")
	synErrNoEqual           = newSyntaxError("the equal sign must precede alternatives")
	synErrNoSemicolon       = newSyntaxError("the semicolon is missing at the last of an alternative")
	synErrNoAction          = newSyntaxError("an alternative needs an action code block")
	synErrNoDirectiveName   = newSyntaxError("a directive needs a name")
	synErrUnknownDirective  = newSyntaxError("unknown directive")
	synErrDirInvalidParam   = newSyntaxError("invalid directive parameter")
	synErrDirNoNewline      = newSyntaxError("a directive must be followed by a newline")
	synErrInvalidPrecMarker = newSyntaxError("'%' in an alternative must be followed by 'prec'")
	synErrNoPrecSymbol      = newSyntaxError("%prec needs a symbol name")
)

