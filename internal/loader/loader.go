// Package loader 负责读取两份聊天导出 CSV 并完成预处理。
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"chat-analysis-go/internal/config"
	"chat-analysis-go/internal/model"
	"chat-analysis-go/internal/preprocess"
	"chat-analysis-go/pkg/log"
	"chat-analysis-go/pkg/storage"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader 从配置的数据源加载两份数据集。
type Loader struct {
	cfg     config.DatasetsConfig
	files   Opener
	objects Opener
	now     func() time.Time
}

// Option 用于定制 Loader。
type Option func(*Loader)

// WithObjectOpener 启用 minio:// 数据源。
func WithObjectOpener(o Opener) Option {
	return func(l *Loader) { l.objects = o }
}

// WithFileOpener 替换本地文件读取实现。
func WithFileOpener(o Opener) Option {
	return func(l *Loader) { l.files = o }
}

// WithClock 替换时间来源。
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// New 创建一个新的 Loader 实例。
func New(cfg config.DatasetsConfig, opts ...Option) *Loader {
	l := &Loader{cfg: cfg, files: FileOpener{}, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type loaded struct {
	dataset *model.Dataset
	raw     []byte
}

type datasetSource struct {
	kind   model.DatasetKind
	source string
}

// Load 加载并预处理两份数据集。任意一份失败时两份都不返回，错误为 *LoadError。
func (l *Loader) Load(ctx context.Context) (*model.Datasets, error) {
	sources := []datasetSource{
		{kind: model.Dataset1, source: l.cfg.Dataset1.Source},
		{kind: model.Dataset2, source: l.cfg.Dataset2.Source},
	}

	results := make([]loaded, len(sources))
	if l.cfg.Parallel {
		if err := l.loadParallel(ctx, sources, results); err != nil {
			return nil, err
		}
	} else {
		for i, src := range sources {
			ds, raw, err := l.LoadDataset(ctx, src.kind, src.source)
			if err != nil {
				return nil, err
			}
			results[i] = loaded{dataset: ds, raw: raw}
		}
	}

	return &model.Datasets{
		Dataset1:    results[0].dataset,
		Dataset2:    results[1].dataset,
		Fingerprint: fingerprint(results[0].raw, results[1].raw),
		LoadedAt:    l.now(),
	}, nil
}

func (l *Loader) loadParallel(ctx context.Context, sources []datasetSource, results []loaded) error {
	// 不使用 WithContext：一份失败时另一份照常完成，保证两份都失败时总是报告 dataset1。
	errs := make([]error, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			ds, raw, err := l.LoadDataset(ctx, src.kind, src.source)
			if err != nil {
				errs[i] = err
				return err
			}
			results[i] = loaded{dataset: ds, raw: raw}
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadDataset 读取单个数据源并执行对应的预处理，同时返回原始字节用于计算指纹。
func (l *Loader) LoadDataset(ctx context.Context, kind model.DatasetKind, source string) (*model.Dataset, []byte, error) {
	start := l.now()

	raw, err := l.read(ctx, source)
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, nil, newLoadError(KindNotFound, kind, source, err)
		}
		return nil, nil, newLoadError(KindUnexpected, kind, source, err)
	}

	frame, err := parseFrame(kind, raw)
	if err != nil {
		return nil, nil, classify(kind, source, err)
	}

	res, err := preprocess.Apply(kind, frame, l.cfg.TimeLayouts)
	if err != nil {
		return nil, nil, classify(kind, source, err)
	}

	ds := &model.Dataset{
		Kind:     kind,
		Source:   source,
		Frame:    res.Frame,
		Times:    res.Times,
		LoadedAt: l.now(),
	}
	log.Infow("数据集加载完成",
		"dataset", kind.String(),
		"source", source,
		"rows", ds.Rows(),
		"columns", ds.Frame.Ncol(),
		"elapsed", l.now().Sub(start).String(),
	)
	return ds, raw, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("source is not configured")
	}

	opener := l.files
	if storage.IsObjectLocation(source) {
		if l.objects == nil {
			return nil, errors.New("object storage is not configured")
		}
		opener = l.objects
	}

	rc, err := opener.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return raw, nil
}

// missingCell 是 gota 字符串列中表示缺失值的写法。
const missingCell = "NaN"

// malformedError 标记 CSV 层面的解析失败。
type malformedError struct{ err error }

func (e *malformedError) Error() string { return e.err.Error() }
func (e *malformedError) Unwrap() error { return e.err }

// parseFrame 将 CSV 字节解析为全部为字符串列的数据帧。
func parseFrame(kind model.DatasetKind, raw []byte) (dataframe.DataFrame, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: no columns to parse from file", ErrNoData)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	// 消息正文中常见未转义的引号，按字面文本读取
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return dataframe.DataFrame{}, &malformedError{err: err}
		}
		return dataframe.DataFrame{}, err
	}
	if len(records) < 2 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: header row without data rows", ErrNoData)
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	for i := 1; i < len(records); i++ {
		switch n := len(records[i]); {
		case n > len(header):
			return dataframe.DataFrame{}, &malformedError{err: fmt.Errorf("row %d: expected %d fields, saw %d", i+1, len(header), n)}
		case n < len(header):
			// 缺失的尾部单元格按缺失值处理
			for n < len(header) {
				records[i] = append(records[i], missingCell)
				n++
			}
		}
	}
	for _, col := range kind.RequiredColumns() {
		if !contains(header, col) {
			return dataframe.DataFrame{}, fmt.Errorf("%w: %s", preprocess.ErrMissingColumn, col)
		}
	}

	frame := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if frame.Err != nil {
		return dataframe.DataFrame{}, &malformedError{err: frame.Err}
	}
	return frame, nil
}

func classify(kind model.DatasetKind, source string, err error) *LoadError {
	var merr *malformedError
	switch {
	case errors.Is(err, ErrNoData):
		return newLoadError(KindEmpty, kind, source, err)
	case errors.As(err, &merr),
		errors.Is(err, preprocess.ErrMissingColumn),
		errors.Is(err, preprocess.ErrUnparseableDatetime):
		return newLoadError(KindMalformed, kind, source, err)
	default:
		return newLoadError(KindUnexpected, kind, source, err)
	}
}

func fingerprint(parts ...[]byte) string {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		_, _ = h.Write(p)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
