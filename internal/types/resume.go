package types

// Resume is the candidate's uploaded resume file.
type Resume struct {
	Filename string
	Content  []byte
}
