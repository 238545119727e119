package jsonl

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	rest "github.com/go-sif/sif-rest"
	"github.com/tidwall/gjson"
)

// ParserConf configures a JSONL Parser, suitable for JSON lines data
type ParserConf struct {
	HeaderLines   int  // The number of lines to ignore from the beginning of each input. Defaults to 0.
	Comment       rune // Lines beginning with the comment character are ignored. Defaults to no comment character.
	MaxBufferSize int  // Maximum size in bytes of the buffer used to read lines from the input
}

// Parser produces InputRows from JSONL data
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new JSONL Parser. Each non-blank line becomes one InputRow,
// whose keys are the top-level keys of the line's object.
func CreateParser(conf *ParserConf) *Parser {
	if conf == nil {
		conf = &ParserConf{}
	}
	if conf.MaxBufferSize == 0 {
		conf.MaxBufferSize = bufio.MaxScanTokenSize
	}
	return &Parser{conf: conf}
}

// Parse parses JSONL data to produce InputRows, in line order
func (p *Parser) Parse(r io.Reader) ([]rest.InputRow, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), p.conf.MaxBufferSize)
	// ignore header lines, if configured to do so
	for i := 0; i < p.conf.HeaderLines; i++ {
		if !scanner.Scan() {
			return nil, scanner.Err()
		}
	}
	rows := make([]rest.InputRow, 0)
	for lineNum := p.conf.HeaderLines + 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || (p.conf.Comment != 0 && strings.HasPrefix(line, string(p.conf.Comment))) {
			continue
		}
		row, err := ParseJSONRow(line)
		if err != nil {
			log.Printf("Unable to parse line:\n\t%s", line)
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ParseJSONRow converts a single JSON object into an InputRow
func ParseJSONRow(line string) (rest.InputRow, error) {
	if !gjson.Valid(line) {
		return nil, fmt.Errorf("Row is not valid JSON: %s", line)
	}
	parsed := gjson.Parse(line)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("Row is not a JSON object: %s", line)
	}
	obj, ok := parsed.Value().(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("Row is not a JSON object: %s", line)
	}
	return rest.InputRow(obj), nil
}
