package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"matt-dashboard/internal/models"
)

const (
	parseBatchSize  = 5000
	parseMaxWorkers = 8
)

// RequiredColumns are the headers an upload must carry to be accepted
// as a MATT report. Pricing and status columns are consumed when
// present but their absence does not reject the file.
var RequiredColumns = []string{
	"BUYER_NAME",
	"COMMUNITY",
	"DIV_CODE_DESC",
	"NHC_NAME",
	"PLAN_CODE",
	"PROJECT",
	"SALE_DATE",
	"SALES_CANCELLATION_DATE",
}

// MissingColumnsError reports exactly which required upload columns are
// absent. Malformed values inside present columns never produce this;
// they degrade to nulls downstream.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// ParseMATT reads a raw MATT export. The header row is matched by name
// (trimmed), so column positions are free to move between exports, and
// the legacy Textbox4/Textbox22 headers are honored as aliases for the
// homesite type and net sales price. Row order is preserved.
func ParseMATT(ctx context.Context, r io.Reader) ([]models.RawSaleRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingColumnsError{Columns: missing}
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}

	cols := columnIndexes(idx)
	records := make([]models.RawSaleRecord, len(rows))

	// Batches convert into disjoint regions of the preallocated slice,
	// so no locking is needed and input order survives.
	var g errgroup.Group
	g.SetLimit(parseMaxWorkers)

	for start := 0; start < len(rows); start += parseBatchSize {
		end := min(start+parseBatchSize, len(rows))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for i := start; i < end; i++ {
				records[i] = convertRow(rows[i], cols)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// columnIndex positions for every field we consume, -1 when absent.
type mattColumns struct {
	division, project, buyer, community, planCode    int
	saleDate, coeDate, cancelDate, hsType, coBroke   int
	nhcName, basePrice, premium, incentive           int
	optionRevenue, netSalesPrice, totalSqFt          int
}

func columnIndexes(idx map[string]int) mattColumns {
	col := func(names ...string) int {
		for _, name := range names {
			if i, ok := idx[name]; ok {
				return i
			}
		}
		return -1
	}
	return mattColumns{
		division:      col("DIV_CODE_DESC"),
		project:       col("PROJECT"),
		buyer:         col("BUYER_NAME"),
		community:     col("COMMUNITY"),
		planCode:      col("PLAN_CODE"),
		saleDate:      col("SALE_DATE"),
		coeDate:       col("EST_COE_DATE"),
		cancelDate:    col("SALES_CANCELLATION_DATE"),
		hsType:        col("HS_TYPE", "Textbox4"),
		coBroke:       col("COBROKE_Y_N"),
		nhcName:       col("NHC_NAME"),
		basePrice:     col("BASE_PRICE"),
		premium:       col("HOMESITE_PREMIUM"),
		incentive:     col("PRICE_REDUCTION_INCENTIVES"),
		optionRevenue: col("OPTION_REVENUE"),
		netSalesPrice: col("Net_Sales_Price", "Textbox22"),
		totalSqFt:     col("TOTAL_SQFT"),
	}
}

func convertRow(row []string, c mattColumns) models.RawSaleRecord {
	at := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return models.RawSaleRecord{
		Division:        at(c.division),
		Project:         at(c.project),
		BuyerName:       at(c.buyer),
		Community:       at(c.community),
		PlanCode:        at(c.planCode),
		SaleDate:        at(c.saleDate),
		EstCOEDate:      at(c.coeDate),
		CancelDate:      at(c.cancelDate),
		HomesiteType:    at(c.hsType),
		CoBroke:         at(c.coBroke),
		NHCName:         at(c.nhcName),
		BasePrice:       at(c.basePrice),
		HomesitePremium: at(c.premium),
		PriceIncentive:  at(c.incentive),
		OptionRevenue:   at(c.optionRevenue),
		NetSalesPrice:   at(c.netSalesPrice),
		TotalSqFt:       at(c.totalSqFt),
	}
}
