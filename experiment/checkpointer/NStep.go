package checkpointer

// nStep implements checkpointing every N steps
type nStep struct {
	interval int

	// filename returns the string filename of the file to save the
	// object in.
	//
	// To save each checkpoint in a separate file with an incremented
	// number as a suffix (e.g. file1.bin, file2.bin, ..., fileK.bin),
	// use the static function FilenameEnumerator, which will return a
	// function that will enumerate filenames.
	//
	// To save each checkpoint in a separate file whose name does not
	// matter, use the static function FileTimer to generate the
	// required naming function. For example:
	//
	// n := NewNStep(10, FileTimer("filename", ".bin"))
	filename func() string
}

// NewNStep returns a checkpointer that saves every n steps
func NewNStep(n int, filename func() string) Checkpointer {
	return &nStep{
		interval: n,
		filename: filename,
	}
}

// Checkpoint saves the object if the step falls on the checkpointing
// interval.
func (n *nStep) Checkpoint(step int, object Serializable) error {
	if step%n.interval == 0 {
		return object.Save(n.filename())
	}
	return nil
}
