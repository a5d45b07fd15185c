package resource

import (
	"os"

	internal "github.com/ZanzyTHEbar/pathresource/pathfs"
	"github.com/ZanzyTHEbar/pathresource/pathfs/config"
	"github.com/ZanzyTHEbar/pathresource/pathfs/filesystem/common"

	"github.com/rs/zerolog"
)

// Options holds settings shared by every resource created through one factory.
type Options struct {
	// DirPerm is used for directories created by Mkdir, Mkdirs and parent creation.
	DirPerm os.FileMode
	// FilePerm is used for files created by CreateNewFile and SetContents.
	FilePerm os.FileMode
	// TempDir is where CreateTempResource places files. Empty means os.TempDir().
	TempDir string
	// TempPrefix prefixes temp file names.
	TempPrefix string
	// ListParallelism bounds the goroutines wrapping directory entries. Zero means GOMAXPROCS.
	ListParallelism int
	// IgnoreFile names the per-directory ignore file read by IgnoreFilter. Empty disables it.
	IgnoreFile string

	Logger   zerolog.Logger
	Metrics  *common.OperationMetrics
	Monitors MonitorService
}

// DefaultOptions returns options built from the package defaults with a disabled logger.
func DefaultOptions() *Options {
	return &Options{
		DirPerm:    internal.DefaultDirPerm,
		FilePerm:   internal.DefaultFilePerm,
		TempPrefix: internal.DefaultTempPrefix,
		IgnoreFile: internal.DefaultIgnoreFile,
		Logger:     zerolog.Nop(),
		Metrics:    common.NewOperationMetrics(),
		Monitors:   NoopMonitorService{},
	}
}

// OptionsFromConfig converts loaded configuration into resource options.
// The monitor service stays the no-op default; callers bind a real one.
func OptionsFromConfig(cfg *config.Config) *Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}

	p := cfg.PathFS
	if p.DirPerm != 0 {
		opts.DirPerm = os.FileMode(p.DirPerm)
	}
	if p.FilePerm != 0 {
		opts.FilePerm = os.FileMode(p.FilePerm)
	}
	opts.TempDir = p.TempDir
	if p.TempPrefix != "" {
		opts.TempPrefix = p.TempPrefix
	}
	opts.ListParallelism = p.Listing.Parallelism
	opts.IgnoreFile = p.IgnoreFile
	opts.Logger = internal.NewLogger(p.LogLevel)
	return opts
}

func (o *Options) withDefaults() *Options {
	if o == nil {
		return DefaultOptions()
	}
	if o.DirPerm == 0 {
		o.DirPerm = internal.DefaultDirPerm
	}
	if o.FilePerm == 0 {
		o.FilePerm = internal.DefaultFilePerm
	}
	if o.Monitors == nil {
		o.Monitors = NoopMonitorService{}
	}
	return o
}
