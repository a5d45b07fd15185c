package resource

type accessMode uint32

const (
	accessRead accessMode = 1 << iota
	accessWrite
	accessExecute
)
