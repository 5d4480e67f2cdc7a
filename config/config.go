//Package config holds the settings of the review tool: where the records live (remote and local), how they
//are synced, how many shots stay in memory and where the review server listens
package config

import (
	"fmt"
	"path"
	"time"

	"github.com/pbnjay/memory"

	"icrhDiag/fileSync"
)

const Mega = 1 << 20

//Remote modes
const (
	ModeSSH = "ssh"
	ModeDir = "dir"
)

//Config is the complete configuration
type Config struct {
	Remote RemoteConfig `yaml:"remote" mapstructure:"remote"` // acquisition host
	Data   DataConfig   `yaml:"data" mapstructure:"data"`     // local cache directories
	Sync   SyncConfig   `yaml:"sync" mapstructure:"sync"`     // transfer policy
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`   // in-memory shot cache
	Server ServerConfig `yaml:"server" mapstructure:"server"` // review server
	Plot   PlotConfig   `yaml:"plot" mapstructure:"plot"`     // figure size
}

//RemoteConfig locates the record directories on the acquisition host
type RemoteConfig struct {
	Mode             string `yaml:"mode" mapstructure:"mode"`                           // "ssh" or "dir" (mounted share)
	Host             string `yaml:"host" mapstructure:"host"`                           // user@host for ssh mode
	ConditioningPath string `yaml:"conditioning_path" mapstructure:"conditioning_path"` // conditioning logs
	FastDataPath     string `yaml:"fast_data_path" mapstructure:"fast_data_path"`       // fast acquisition files
}

//DataConfig contains the local mirrors of the remote directories
type DataConfig struct {
	ConditioningDir string `yaml:"conditioning_dir" mapstructure:"conditioning_dir"`
	FastDataDir     string `yaml:"fast_data_dir" mapstructure:"fast_data_dir"`
}

type SyncConfig struct {
	MaxFiles int           `yaml:"max_files" mapstructure:"max_files"` // most recent remote files considered, 0 = all
	Parallel int64         `yaml:"parallel" mapstructure:"parallel"`   // concurrent transfers
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`     // per file, 0 = none
}

type CacheConfig struct {
	MaxEvents   int `yaml:"max_events" mapstructure:"max_events"`       // 0 = unbounded
	MaxMemoryMB int `yaml:"max_memory_mb" mapstructure:"max_memory_mb"` // 0 = unbounded
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

//PlotConfig figure size in pixels
type PlotConfig struct {
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`
}

//DefaultConfig returns the settings of the acquisition setup the tool was written for
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			Mode:             ModeSSH,
			Host:             "dfci@dfci",
			ConditioningPath: "/home/dfci/media/ssd/Conditionnement/",
			FastDataPath:     "/media/ssd/Fast_Data/",
		},
		Data: DataConfig{
			ConditioningDir: "data",
			FastDataDir:     "data/Fast_Data",
		},
		Sync: SyncConfig{
			MaxFiles: fileSync.DefaultMaxFiles,
			Parallel: 4,
			Timeout:  2 * time.Minute,
		},
		Cache: CacheConfig{
			MaxEvents:   20,
			MaxMemoryMB: 512,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Plot: PlotConfig{
			Width:  800,
			Height: 600,
		},
	}
}

//Validate checks ranges and that the cache budget fits into the physical memory of the machine
func (c *Config) Validate() error {
	switch c.Remote.Mode {
	case ModeSSH:
		if c.Remote.Host == "" {
			return fmt.Errorf("remote.host is required in %v mode", ModeSSH)
		}
	case ModeDir:
	default:
		return fmt.Errorf("remote.mode must be %q or %q, got %q", ModeSSH, ModeDir, c.Remote.Mode)
	}
	if c.Remote.ConditioningPath == "" || c.Remote.FastDataPath == "" {
		return fmt.Errorf("remote paths must not be empty")
	}
	if c.Data.ConditioningDir == "" || c.Data.FastDataDir == "" {
		return fmt.Errorf("data directories must not be empty")
	}
	if c.Sync.MaxFiles < 0 {
		return fmt.Errorf("sync.max_files must not be negative")
	}
	if c.Sync.Parallel < 1 {
		return fmt.Errorf("sync.parallel must be at least 1")
	}
	if c.Sync.Timeout < 0 {
		return fmt.Errorf("sync.timeout must not be negative")
	}
	if c.Cache.MaxEvents < 0 || c.Cache.MaxMemoryMB < 0 {
		return fmt.Errorf("cache bounds must not be negative")
	}
	if uint64(c.Cache.MaxMemoryMB) > memory.TotalMemory()/Mega {
		return fmt.Errorf("cache.max_memory_mb %v is larger than the available memory", c.Cache.MaxMemoryMB)
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		return fmt.Errorf("plot size must be positive")
	}
	return nil
}

//CacheBytes returns the cache memory budget in bytes
func (c *Config) CacheBytes() int64 {
	return int64(c.Cache.MaxMemoryMB) * Mega
}

//remote builds the Remote serving dir of the acquisition host
func (c *Config) remote(dir string) fileSync.Remote {
	if c.Remote.Mode == ModeDir {
		return fileSync.DirRemote{Path: dir}
	}
	return fileSync.SSHRemote{Host: c.Remote.Host, Path: path.Clean(dir)}
}

func (c *Config) syncer(remoteDir, localDir string) *fileSync.Syncer {
	return &fileSync.Syncer{
		Remote:   c.remote(remoteDir),
		LocalDir: localDir,
		MaxFiles: c.Sync.MaxFiles,
		Parallel: c.Sync.Parallel,
		Timeout:  c.Sync.Timeout,
	}
}

//ConditioningSyncer mirrors the conditioning logs
func (c *Config) ConditioningSyncer() *fileSync.Syncer {
	return c.syncer(c.Remote.ConditioningPath, c.Data.ConditioningDir)
}

//FastDataSyncer mirrors the fast acquisition files
func (c *Config) FastDataSyncer() *fileSync.Syncer {
	return c.syncer(c.Remote.FastDataPath, c.Data.FastDataDir)
}
