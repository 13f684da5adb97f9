package archive

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/chrisdamba/kitchensync/internal/cloudwriter"
	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"
)

// OrderRow is the flattened parquet shape of one completed order.
type OrderRow struct {
	OrderID     string  `parquet:"name=order_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	TenantID    string  `parquet:"name=tenant_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	Status      string  `parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderType   string  `parquet:"name=order_type,type=BYTE_ARRAY,convertedtype=UTF8"`
	TotalAmount float64 `parquet:"name=total_amount,type=DOUBLE"`
	ItemCount   int32   `parquet:"name=item_count,type=INT32"`
	CreatedAt   int64   `parquet:"name=created_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	PreparingAt *int64  `parquet:"name=preparing_at,type=INT64,convertedtype=TIMESTAMP_MILLIS,repetitiontype=OPTIONAL"`
	ReadyAt     *int64  `parquet:"name=ready_at,type=INT64,convertedtype=TIMESTAMP_MILLIS,repetitiontype=OPTIONAL"`
	ServedAt    *int64  `parquet:"name=served_at,type=INT64,convertedtype=TIMESTAMP_MILLIS,repetitiontype=OPTIONAL"`
	PaidAt      *int64  `parquet:"name=paid_at,type=INT64,convertedtype=TIMESTAMP_MILLIS,repetitiontype=OPTIONAL"`
}

// Exporter writes one day of completed orders as a parquet object, locally
// or to S3 depending on configuration.
type Exporter struct {
	cfg models.ArchiveConfig
	log *zap.Logger
}

func NewExporter(cfg models.ArchiveConfig, log *zap.Logger) *Exporter {
	return &Exporter{cfg: cfg, log: log}
}

// Export writes the orders and returns the object path it wrote.
func (e *Exporter) Export(ctx context.Context, day time.Time, orders []models.Order) (string, error) {
	name := fmt.Sprintf("orders-%s.parquet", day.Format("2006-01-02"))

	var (
		pf         source.ParquetFile
		objectPath string
		err        error
	)
	switch e.cfg.Destination {
	case "local":
		objectPath = filepath.Join(e.cfg.OutputPath, name)
		pf, err = local.NewLocalFileWriter(objectPath)
		if err != nil {
			return "", fmt.Errorf("failed to create archive file: %w", err)
		}
	case "s3":
		factory, ferr := cloudwriter.NewS3Factory(ctx, e.cfg.Region)
		if ferr != nil {
			return "", ferr
		}
		objectPath = filepath.ToSlash(filepath.Join(e.cfg.OutputPath, name))
		w, werr := factory.NewWriter(ctx, e.cfg.Bucket, objectPath)
		if werr != nil {
			return "", werr
		}
		pf = &objectParquetFile{w: w}
	default:
		return "", fmt.Errorf("unsupported archive destination: %s", e.cfg.Destination)
	}

	pw, err := writer.NewParquetWriter(pf, new(OrderRow), 4)
	if err != nil {
		pf.Close()
		return "", fmt.Errorf("failed to create parquet writer: %w", err)
	}

	for i := range orders {
		if err := pw.Write(rowFromOrder(&orders[i])); err != nil {
			pf.Close()
			return "", fmt.Errorf("failed to write archive row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		pf.Close()
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := pf.Close(); err != nil {
		return "", err
	}

	e.log.Info("archive written",
		zap.String("path", objectPath),
		zap.Int("orders", len(orders)),
		zap.String("destination", e.cfg.Destination),
	)
	return objectPath, nil
}

func rowFromOrder(o *models.Order) OrderRow {
	millis := func(t *time.Time) *int64 {
		if t == nil {
			return nil
		}
		ms := t.UnixMilli()
		return &ms
	}
	return OrderRow{
		OrderID:     o.ID,
		TenantID:    o.TenantID,
		Status:      string(o.Status),
		OrderType:   o.OrderType,
		TotalAmount: o.TotalAmount,
		ItemCount:   int32(len(o.Items)),
		CreatedAt:   o.CreatedAt.UnixMilli(),
		PreparingAt: millis(o.PreparingAt),
		ReadyAt:     millis(o.ReadyAt),
		ServedAt:    millis(o.ServedAt),
		PaidAt:      millis(o.PaidAt),
	}
}

// objectParquetFile adapts a buffering object writer to the parquet source
// interface. Reads and seeks from the end are unsupported; the writer only
// ever appends.
type objectParquetFile struct {
	w      cloudwriter.ObjectWriter
	offset int64
}

func (f *objectParquetFile) Open(string) (source.ParquetFile, error)   { return f, nil }
func (f *objectParquetFile) Create(string) (source.ParquetFile, error) { return f, nil }

func (f *objectParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.offset = offset
	case io.SeekCurrent:
		f.offset += offset
	case io.SeekEnd:
		return 0, fmt.Errorf("seek from end not supported for object storage")
	}
	return f.offset, nil
}

func (f *objectParquetFile) Read([]byte) (int, error) {
	return 0, fmt.Errorf("read not supported for object storage")
}

func (f *objectParquetFile) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	f.offset += int64(n)
	return n, err
}

func (f *objectParquetFile) Close() error {
	return f.w.Close()
}
