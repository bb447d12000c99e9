package grammar

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	semErrNoProduction          = newSemanticError("a grammar needs at least one production")
	semErrMissingRequiredConfig = newSemanticError("a required directive is missing")
	semErrUndefinedSym          = newSemanticError("undefined symbol")
	semErrDuplicateProduction   = newSemanticError("duplicate production")
	semErrDuplicateAlternative  = newSemanticError("duplicate alternative")
	semErrAmbiguousPrec         = newSemanticError("a terminal cannot have more than one precedence")
	semErrNonTerminating        = newSemanticError("a production never derives a finite string")
	semErrUnresolvableConflict  = newSemanticError("unresolvable conflict")
	semErrPlaceholderOutOfRange = newSemanticError("placeholder out of range")
)
