package rest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-sif/sif-rest/errors"
	"github.com/go-sif/sif-rest/logging"
)

// Options are the resolved, typed options of a REST job
type Options struct {
	URL               string          // [REQUIRED] url template. {name} placeholders are replaced by the value of each row's name field
	Input             RowSource       // [REQUIRED] the table whose rows parameterize each call
	Method            string          // GET or POST. Defaults to GET.
	UserID            string          // basic-auth user. Basic auth is only used if this is non-empty.
	UserPassword      string          // basic-auth password
	Partitions        int             // number of partitions processed in parallel. Defaults to 2.
	ConnectionTimeout time.Duration   // bound on establishing each connection. Defaults to 1s.
	ReadTimeout       time.Duration   // bound on receiving each response. Defaults to 5s.
	SchemaSamplePcnt  float64         // percentage of rows sampled for schema inference, in (0, 100]. Defaults to 30.
	MinSampleSize     int             // lower bound on the number of sampled rows. Defaults to 3.
	CallStrictlyOnce  bool            // iff true, each distinct row is sent at most once per job
	BodyEncoding      BodyEncoding    // POST body encoding. Defaults to JSONEncoding.
	Headers           http.Header     // additional headers sent with every request
	SampleConcurrency int             // maximum number of in-flight sample calls. Defaults to 4.
	CompressCache     bool            // iff true, lz4-compress response bodies retained by the strict-once cache
	Transport         Transport       // sends requests. Defaults to an HTTP transport.
	Output            RecordSink      // optional destination for the job's records
	Logger            *logging.Logger // defaults to a Logger writing messages at InfoLevel and above to stderr
}

// CloneOptions makes a copy of an Options
func CloneOptions(opts *Options) *Options {
	return &Options{
		URL:               opts.URL,
		Input:             opts.Input,
		Method:            opts.Method,
		UserID:            opts.UserID,
		UserPassword:      opts.UserPassword,
		Partitions:        opts.Partitions,
		ConnectionTimeout: opts.ConnectionTimeout,
		ReadTimeout:       opts.ReadTimeout,
		SchemaSamplePcnt:  opts.SchemaSamplePcnt,
		MinSampleSize:     opts.MinSampleSize,
		CallStrictlyOnce:  opts.CallStrictlyOnce,
		BodyEncoding:      opts.BodyEncoding,
		Headers:           opts.Headers.Clone(),
		SampleConcurrency: opts.SampleConcurrency,
		CompressCache:     opts.CompressCache,
		Transport:         opts.Transport,
		Output:            opts.Output,
		Logger:            opts.Logger,
	}
}

func ensureDefaultOptionsValues(opts *Options) {
	if len(opts.Method) == 0 {
		opts.Method = http.MethodGet
	}
	opts.Method = strings.ToUpper(opts.Method)
	if opts.Partitions == 0 {
		opts.Partitions = 2
	}
	if opts.ConnectionTimeout == 0 {
		opts.ConnectionTimeout = time.Duration(1000) * time.Millisecond
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = time.Duration(5000) * time.Millisecond
	}
	if opts.SchemaSamplePcnt == 0 {
		opts.SchemaSamplePcnt = 30
	}
	if opts.MinSampleSize == 0 {
		opts.MinSampleSize = 3
	}
	if len(opts.BodyEncoding) == 0 {
		opts.BodyEncoding = JSONEncoding
	}
	if opts.SampleConcurrency == 0 {
		opts.SampleConcurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = logging.CreateLogger(logging.InfoLevel)
	}
}

func validateOptions(opts *Options) error {
	if len(opts.URL) == 0 {
		return errors.ConfigError{Option: "URL", Reason: "required"}
	}
	if opts.Input == nil {
		return errors.ConfigError{Option: "Input", Reason: "required"}
	}
	if opts.Method != http.MethodGet && opts.Method != http.MethodPost {
		return errors.ConfigError{Option: "Method", Reason: fmt.Sprintf("%s is not one of GET, POST", opts.Method)}
	}
	if opts.BodyEncoding != JSONEncoding && opts.BodyEncoding != FormEncoding {
		return errors.ConfigError{Option: "BodyEncoding", Reason: fmt.Sprintf("%s is not one of %s, %s", opts.BodyEncoding, JSONEncoding, FormEncoding)}
	}
	if opts.Partitions < 1 {
		return errors.ConfigError{Option: "Partitions", Reason: "must be greater than 0"}
	}
	if opts.ConnectionTimeout < 0 {
		return errors.ConfigError{Option: "ConnectionTimeout", Reason: "must be positive"}
	}
	if opts.ReadTimeout < 0 {
		return errors.ConfigError{Option: "ReadTimeout", Reason: "must be positive"}
	}
	if opts.SchemaSamplePcnt <= 0 || opts.SchemaSamplePcnt > 100 {
		return errors.ConfigError{Option: "SchemaSamplePcnt", Reason: fmt.Sprintf("%v is not within (0, 100]", opts.SchemaSamplePcnt)}
	}
	if opts.MinSampleSize < 1 {
		return errors.ConfigError{Option: "MinSampleSize", Reason: "must be greater than 0"}
	}
	if opts.SampleConcurrency < 1 {
		return errors.ConfigError{Option: "SampleConcurrency", Reason: "must be greater than 0"}
	}
	return nil
}

// ResolveOptions returns a copy of opts with defaults applied, or a ConfigError
// if a required option is missing or an option is invalid
func ResolveOptions(opts *Options) (*Options, error) {
	if opts == nil {
		return nil, errors.ConfigError{Option: "Options", Reason: "required"}
	}
	resolved := CloneOptions(opts)
	ensureDefaultOptionsValues(resolved)
	if err := validateOptions(resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

// RequestSpec returns the RequestSpec shared by every call of a job
func (o *Options) RequestSpec() *RequestSpec {
	return &RequestSpec{
		URL:               o.URL,
		Method:            o.Method,
		UserID:            o.UserID,
		UserPassword:      o.UserPassword,
		ConnectionTimeout: o.ConnectionTimeout,
		ReadTimeout:       o.ReadTimeout,
		BodyEncoding:      o.BodyEncoding,
		Headers:           o.Headers.Clone(),
	}
}
