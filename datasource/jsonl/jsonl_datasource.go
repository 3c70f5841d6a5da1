package jsonl

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/strata-data/strata"
	"github.com/strata-data/strata/internal/dataset"
	"github.com/tidwall/gjson"
)

// Conf configures a JSONL DataSource
type Conf struct {
	LinesPerBlock int // The maximum number of lines per Block. Defaults to 1024.
	MaxBufferSize int // Maximum size in bytes of the buffer used to read lines from the file
}

// DataSource lazily reads newline-delimited JSON from a file, producing one
// Block per chunk of lines. Only the requested columns are extracted; column
// names may be gjson paths into nested documents.
type DataSource struct {
	path    string
	columns []string
	conf    *Conf
}

// CreateDataset is a factory for Datasets over a newline-delimited JSON file
func CreateDataset(path string, columns []string, sourceConf *Conf, conf *strata.Config) strata.Dataset {
	if sourceConf == nil {
		sourceConf = &Conf{}
	}
	if sourceConf.LinesPerBlock == 0 {
		sourceConf.LinesPerBlock = 1024
	}
	if sourceConf.MaxBufferSize == 0 {
		sourceConf.MaxBufferSize = bufio.MaxScanTokenSize
	}
	source := &DataSource{
		path:    path,
		columns: columns,
		conf:    sourceConf,
	}
	return dataset.CreateDataset(source, conf)
}

// Name returns the read stage suffix for this DataSource
func (s *DataSource) Name() string {
	return "JSONL"
}

func (s *DataSource) newScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), s.conf.MaxBufferSize)
	return scanner
}

// Analyze counts lines in the underlying file to determine the number of Blocks
func (s *DataSource) Analyze() (int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	lines := 0
	scanner := s.newScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			lines++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	numBlocks := (lines + s.conf.LinesPerBlock - 1) / s.conf.LinesPerBlock
	if numBlocks < 1 {
		numBlocks = 1
	}
	return numBlocks, nil
}

// Load parses a single Block's worth of lines
func (s *DataSource) Load(ctx context.Context, block int) (strata.Block, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	start := block * s.conf.LinesPerBlock
	end := start + s.conf.LinesPerBlock
	out := make(strata.Block, 0, s.conf.LinesPerBlock)
	line := 0
	scanner := s.newScanner(f)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if line >= start && line < end {
			row := make(strata.Row, len(s.columns))
			for _, col := range s.columns {
				row[col] = gjson.Get(text, col).Value()
			}
			out = append(out, row)
		}
		line++
		if line >= end {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsLazy returns true: every re-execution re-reads the file
func (s *DataSource) IsLazy() bool {
	return true
}
