package timetable

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Source supplies one gzip-compressed timetable document per fetch.
type Source interface {
	Fetch() (io.ReadCloser, error)
}

// FileSource reads a previously downloaded extract, mainly for the one-shot
// CLI and tests.
type FileSource struct {
	Path string
}

func (s *FileSource) Fetch() (io.ReadCloser, error) {
	return os.Open(s.Path)
}

// BucketSource pulls the extract from the public timetable bucket over its
// HTTP listing API. Objects are named YYYYMMDDHHMMSS_vN.xml.gz; the small
// ref_v reference files share the prefix and are skipped. The freshest full
// extract is the largest object of the most recent date.
type BucketSource struct {
	BaseURL string
	Prefix  string

	Client *http.Client
}

type bucketObject struct {
	Key          string    `xml:"Key"`
	Size         int64     `xml:"Size"`
	LastModified time.Time `xml:"LastModified"`
}

type bucketListing struct {
	Contents              []bucketObject `xml:"Contents"`
	IsTruncated           bool           `xml:"IsTruncated"`
	NextContinuationToken string         `xml:"NextContinuationToken"`
}

func (s *BucketSource) httpClient() *http.Client {
	if s.Client == nil {
		return &http.Client{Timeout: 5 * time.Minute}
	}

	return s.Client
}

func (s *BucketSource) Fetch() (io.ReadCloser, error) {
	key, err := s.findLatest()
	if err != nil {
		return nil, err
	}

	log.Info().Str("key", key).Msg("Downloading timetable extract")

	resp, err := s.httpClient().Get(fmt.Sprintf("%s/%s", strings.TrimRight(s.BaseURL, "/"), key))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("timetable download returned %s", resp.Status)
	}

	return resp.Body, nil
}

func (s *BucketSource) findLatest() (string, error) {
	objects, err := s.listObjects()
	if err != nil {
		return "", err
	}

	var candidates []bucketObject
	for _, object := range objects {
		filename := object.Key[strings.LastIndex(object.Key, "/")+1:]

		if strings.Contains(filename, "_v") && !strings.Contains(filename, "ref_v") && len(filename) >= 8 {
			candidates = append(candidates, object)
		}
	}

	if len(candidates) == 0 {
		return "", errors.New("no timetable objects found in bucket")
	}

	// Most recent date first, then largest object within that date.
	sort.Slice(candidates, func(i, j int) bool {
		dateI := filenameDate(candidates[i].Key)
		dateJ := filenameDate(candidates[j].Key)

		if dateI != dateJ {
			return dateI > dateJ
		}

		return candidates[i].Size > candidates[j].Size
	})

	return candidates[0].Key, nil
}

func (s *BucketSource) listObjects() ([]bucketObject, error) {
	var objects []bucketObject
	continuationToken := ""

	for {
		listURL := fmt.Sprintf("%s?list-type=2&prefix=%s",
			strings.TrimRight(s.BaseURL, "/"), url.QueryEscape(s.Prefix))
		if continuationToken != "" {
			listURL = fmt.Sprintf("%s&continuation-token=%s", listURL, url.QueryEscape(continuationToken))
		}

		resp, err := s.httpClient().Get(listURL)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("bucket listing returned %s", resp.Status)
		}

		var listing bucketListing
		err = xml.NewDecoder(resp.Body).Decode(&listing)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("bucket listing decode failed: %w", err)
		}

		objects = append(objects, listing.Contents...)

		if !listing.IsTruncated || listing.NextContinuationToken == "" {
			break
		}
		continuationToken = listing.NextContinuationToken
	}

	return objects, nil
}

func filenameDate(key string) string {
	filename := key[strings.LastIndex(key, "/")+1:]
	if len(filename) < 8 {
		return ""
	}

	return filename[:8]
}
