package lint

func init() {
	Register(&NamingCase{})
	Register(&AbbreviationCase{})
	Register(&RecordInSum{})
	Register(&PointFree{})
	Register(&MissingSignature{})
	Register(&TrailingWhitespace{})
}
