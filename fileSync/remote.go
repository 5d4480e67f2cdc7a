//Package fileSync mirrors the record files of the acquisition host into a local cache directory and
//deletes records on both sides
package fileSync

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

//Remote is the acquisition host side of the sync. Names are base names relative to the remote directory
type Remote interface {
	//List returns the names of the remote files
	List(ctx context.Context) ([]string, error)
	//Fetch copies the remote file name into localDir
	Fetch(ctx context.Context, name, localDir string) error
	//Remove deletes the remote file name
	Remove(ctx context.Context, name string) error
}

//DirRemote serves a directory of the local file system, e.g. a mounted share of the acquisition host
type DirRemote struct {
	Path string
}

func (d DirRemote) List(ctx context.Context) ([]string, error) {
	return ListLocal(d.Path)
}

//Fetch copies into a temporary file first so that an interrupted copy never leaves a partial record behind
func (d DirRemote) Fetch(ctx context.Context, name, localDir string) error {
	src, err := os.Open(filepath.Join(d.Path, name))
	if err != nil {
		return errors.Wrapf(err, "could not open remote file %v", name)
	}
	defer src.Close()

	tmp, err := ioutil.TempFile(localDir, "."+name+".part")
	if err != nil {
		return errors.Wrapf(err, "could not create local file for %v", name)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: src}); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "could not copy %v", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "could not close local copy of %v", name)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(localDir, name)); err != nil {
		return errors.Wrapf(err, "could not move local copy of %v into place", name)
	}
	return nil
}

func (d DirRemote) Remove(ctx context.Context, name string) error {
	if err := os.Remove(filepath.Join(d.Path, name)); err != nil {
		return errors.Wrapf(err, "could not remove remote file %v", name)
	}
	return nil
}

//ctxReader stops a copy once ctx is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

//SSHRemote reaches the acquisition host with the ssh and scp clients. Authentication is left to the ssh
//configuration of the user (keys, agent)
type SSHRemote struct {
	//Host in ssh notation, e.g. user@host
	Host string
	//Path of the record directory on the host
	Path string
	//SSHCommand and SCPCommand default to "ssh" and "scp"
	SSHCommand string
	SCPCommand string
}

func (s SSHRemote) ssh() string {
	if s.SSHCommand == "" {
		return "ssh"
	}
	return s.SSHCommand
}

func (s SSHRemote) scp() string {
	if s.SCPCommand == "" {
		return "scp"
	}
	return s.SCPCommand
}

func run(cmd *exec.Cmd) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrap(err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func (s SSHRemote) List(ctx context.Context) ([]string, error) {
	out, err := run(exec.CommandContext(ctx, s.ssh(), s.Host, "ls", s.Path))
	if err != nil {
		return nil, errors.Wrapf(err, "could not list %v:%v", s.Host, s.Path)
	}
	names := make([]string, 0)
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s SSHRemote) Fetch(ctx context.Context, name, localDir string) error {
	src := s.Host + ":" + path.Join(s.Path, name)
	if _, err := run(exec.CommandContext(ctx, s.scp(), src, localDir)); err != nil {
		return errors.Wrapf(err, "could not copy %v", src)
	}
	return nil
}

func (s SSHRemote) Remove(ctx context.Context, name string) error {
	if _, err := run(exec.CommandContext(ctx, s.ssh(), s.Host, "rm", path.Join(s.Path, name))); err != nil {
		return errors.Wrapf(err, "could not remove %v:%v", s.Host, path.Join(s.Path, name))
	}
	return nil
}
