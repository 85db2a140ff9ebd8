package document

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
)

type File struct {
	fp   *os.File
	meta map[string]string
}

var _ fs.File = (*File)(nil)

func NewFile(fname string) (*File, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	fileInfo, err := fp.Stat()
	if err != nil {
		fp.Close()
		return nil, err
	}
	if fileInfo.IsDir() {
		fp.Close()
		return nil, errors.New("FileDocument could not be a directory")
	}
	return &File{
		fp: fp,
		meta: map[string]string{
			"filename": fileInfo.Name(),
			"modtime":  strconv.FormatInt(fileInfo.ModTime().Unix(), 10),
		},
	}, nil
}

func (d *File) Meta() map[string]string {
	return d.meta
}

func (d *File) Stat() (os.FileInfo, error) {
	return d.fp.Stat()
}

func (d *File) Read(p []byte) (int, error) {
	return d.fp.Read(p)
}

func (d *File) Close() error {
	return d.fp.Close()
}
