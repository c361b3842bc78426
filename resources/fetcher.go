package resources

import (
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"text2phenotype.com/postagger/perceptron"
	"text2phenotype.com/postagger/s3client"
)

const s3Scheme = "s3://"

type Fetcher interface {
	Fetch(location string) ([]byte, error)
}

// Downloader is the part of the S3 client used for "s3://" locations.
type Downloader interface {
	Download(key string) ([]byte, error)
}

type fetcher struct {
	newDownloader func() (Downloader, error)

	once       sync.Once
	downloader Downloader
	err        error
}

// NewFetcher reads local files only.
func NewFetcher() Fetcher {
	return &fetcher{}
}

// NewFetcherWithS3 creates the S3 client on the first "s3://" location.
func NewFetcherWithS3() Fetcher {
	return NewFetcherWithDownloader(func() (Downloader, error) {
		return s3client.New()
	})
}

func NewFetcherWithDownloader(newDownloader func() (Downloader, error)) Fetcher {
	return &fetcher{newDownloader: newDownloader}
}

func (f *fetcher) Fetch(location string) ([]byte, error) {
	if key, ok := S3Key(location); ok {
		downloader, err := f.s3()
		if err != nil {
			return nil, errors.Wrapf(perceptron.ErrResource, "could not fetch %q: %v", location, err)
		}
		data, err := downloader.Download(key)
		if err != nil {
			return nil, errors.Wrapf(perceptron.ErrResource, "could not download %q: %v", location, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(location)
	if err != nil {
		return nil, errors.Wrapf(perceptron.ErrResource, "could not read %q: %v", location, err)
	}
	return data, nil
}

func (f *fetcher) s3() (Downloader, error) {
	if f.newDownloader == nil {
		return nil, errors.New("S3 locations are not enabled")
	}
	f.once.Do(func() {
		f.downloader, f.err = f.newDownloader()
	})
	return f.downloader, f.err
}

func S3Key(location string) (string, bool) {
	if !strings.HasPrefix(location, s3Scheme) {
		return "", false
	}
	return strings.TrimPrefix(location, s3Scheme), true
}
