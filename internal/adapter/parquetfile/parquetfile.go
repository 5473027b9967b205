// Package parquetfile exports warehouse tables to Parquet files for
// downstream analytics tools.
package parquetfile

import (
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
)

var cleanSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String},
	{Name: "country", Type: arrow.BinaryTypes.String},
	{Name: "year", Type: arrow.PrimitiveTypes.Int32},
	{Name: "infrastructure_score", Type: arrow.PrimitiveTypes.Float64},
	{Name: "transport_resilience", Type: arrow.PrimitiveTypes.Float64},
	{Name: "energy_resilience", Type: arrow.PrimitiveTypes.Float64},
	{Name: "water_resilience", Type: arrow.PrimitiveTypes.Float64},
	{Name: "digital_resilience", Type: arrow.PrimitiveTypes.Float64},
	{Name: "avg_resilience", Type: arrow.PrimitiveTypes.Float64},
	{Name: "score_change", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "yearly_rank", Type: arrow.PrimitiveTypes.Int32},
	{Name: "band", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "processed_at", Type: arrow.BinaryTypes.String},
}, nil)

var summarySchema = arrow.NewSchema([]arrow.Field{
	{Name: "country", Type: arrow.BinaryTypes.String},
	{Name: "first_year", Type: arrow.PrimitiveTypes.Int32},
	{Name: "last_year", Type: arrow.PrimitiveTypes.Int32},
	{Name: "num_years", Type: arrow.PrimitiveTypes.Int32},
	{Name: "avg_score", Type: arrow.PrimitiveTypes.Float64},
	{Name: "min_score", Type: arrow.PrimitiveTypes.Float64},
	{Name: "max_score", Type: arrow.PrimitiveTypes.Float64},
	{Name: "score_improvement", Type: arrow.PrimitiveTypes.Float64},
	{Name: "avg_yearly_change", Type: arrow.PrimitiveTypes.Float64},
}, nil)

var trendSchema = arrow.NewSchema([]arrow.Field{
	{Name: "year", Type: arrow.PrimitiveTypes.Int32},
	{Name: "global_avg_score", Type: arrow.PrimitiveTypes.Float64},
	{Name: "score_std_dev", Type: arrow.PrimitiveTypes.Float64},
	{Name: "min_score", Type: arrow.PrimitiveTypes.Float64},
	{Name: "max_score", Type: arrow.PrimitiveTypes.Float64},
	{Name: "num_countries", Type: arrow.PrimitiveTypes.Int32},
}, nil)

// WriteCleanRecords writes clean records to a Snappy-compressed Parquet file.
func WriteCleanRecords(path string, records []domain.CleanRecord) error {
	bld := array.NewRecordBuilder(memory.DefaultAllocator, cleanSchema)
	defer bld.Release()

	for _, r := range records {
		bld.Field(0).(*array.StringBuilder).Append(r.ID)
		bld.Field(1).(*array.StringBuilder).Append(r.Country)
		bld.Field(2).(*array.Int32Builder).Append(int32(r.Year))
		bld.Field(3).(*array.Float64Builder).Append(r.InfrastructureScore)
		bld.Field(4).(*array.Float64Builder).Append(r.TransportResilience)
		bld.Field(5).(*array.Float64Builder).Append(r.EnergyResilience)
		bld.Field(6).(*array.Float64Builder).Append(r.WaterResilience)
		bld.Field(7).(*array.Float64Builder).Append(r.DigitalResilience)
		bld.Field(8).(*array.Float64Builder).Append(r.AvgResilience)
		appendNullableFloat(bld.Field(9).(*array.Float64Builder), r.ScoreChange)
		bld.Field(10).(*array.Int32Builder).Append(int32(r.YearlyRank))
		appendNullableString(bld.Field(11).(*array.StringBuilder), r.Band)
		bld.Field(12).(*array.StringBuilder).Append(r.ProcessedAt.UTC().Format(time.RFC3339))
	}
	return writeRecord(path, cleanSchema, bld)
}

// WriteCountrySummaries writes country summaries to a Parquet file.
func WriteCountrySummaries(path string, summaries []domain.CountrySummary) error {
	bld := array.NewRecordBuilder(memory.DefaultAllocator, summarySchema)
	defer bld.Release()

	for _, cs := range summaries {
		bld.Field(0).(*array.StringBuilder).Append(cs.Country)
		bld.Field(1).(*array.Int32Builder).Append(int32(cs.FirstYear))
		bld.Field(2).(*array.Int32Builder).Append(int32(cs.LastYear))
		bld.Field(3).(*array.Int32Builder).Append(int32(cs.NumYears))
		bld.Field(4).(*array.Float64Builder).Append(cs.AvgScore)
		bld.Field(5).(*array.Float64Builder).Append(cs.MinScore)
		bld.Field(6).(*array.Float64Builder).Append(cs.MaxScore)
		bld.Field(7).(*array.Float64Builder).Append(cs.ScoreImprovement)
		bld.Field(8).(*array.Float64Builder).Append(cs.AvgYearlyChange)
	}
	return writeRecord(path, summarySchema, bld)
}

// WriteYearlyTrends writes yearly trend aggregates to a Parquet file.
func WriteYearlyTrends(path string, trends []domain.YearlyTrend) error {
	bld := array.NewRecordBuilder(memory.DefaultAllocator, trendSchema)
	defer bld.Release()

	for _, t := range trends {
		bld.Field(0).(*array.Int32Builder).Append(int32(t.Year))
		bld.Field(1).(*array.Float64Builder).Append(t.GlobalAvgScore)
		bld.Field(2).(*array.Float64Builder).Append(t.ScoreStdDev)
		bld.Field(3).(*array.Float64Builder).Append(t.MinScore)
		bld.Field(4).(*array.Float64Builder).Append(t.MaxScore)
		bld.Field(5).(*array.Int32Builder).Append(int32(t.NumCountries))
	}
	return writeRecord(path, trendSchema, bld)
}

// NumRows reports the row count of a Parquet file without reading its data.
func NumRows(path string) (int64, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return 0, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer rdr.Close()
	return rdr.NumRows(), nil
}

func writeRecord(path string, schema *arrow.Schema, bld *array.RecordBuilder) error {
	rec := bld.NewRecord()
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet %s: %w", path, err)
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(schema, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		f.Close()
		return fmt.Errorf("parquet writer %s: %w", path, err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		f.Close()
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close parquet %s: %w", path, err)
	}
	return f.Close()
}

func appendNullableFloat(b *array.Float64Builder, v *float64) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}

func appendNullableString(b *array.StringBuilder, v *string) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}
