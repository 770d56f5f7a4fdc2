package ingestion

import (
	"strings"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
)

// headerAliases maps the headers found in source spreadsheets, both the
// original Chinese ones and English ones, onto canonical column names.
var headerAliases = map[string]string{
	"日期":           models.ColDate,
	"数据日期":         models.ColDate,
	"date":         models.ColDate,
	"report_date":  models.ColDate,
	"产品代码":         models.ColCode,
	"代码":           models.ColCode,
	"code":         models.ColCode,
	"product_code": models.ColCode,
	"产品名称":         models.ColName,
	"名称":           models.ColName,
	"name":         models.ColName,
	"product_name": models.ColName,
	"产品类型":         models.ColCategory,
	"类型":           models.ColCategory,
	"category":     models.ColCategory,
	"type":         models.ColCategory,
	"product_type": models.ColCategory,
	"规模":           models.ColScale,
	"scale":        models.ColScale,
	"aum":          models.ColScale,
	"净值":           models.ColNAV,
	"单位净值":         models.ColNAV,
	"nav":          models.ColNAV,
	"net_value":    models.ColNAV,
	"持仓比例":         models.ColHoldingRatio,
	"holding_ratio": models.ColHoldingRatio,
	"weight":       models.ColHoldingRatio,
	"市值":           models.ColMarketValue,
	"market_value": models.ColMarketValue,
	"资产类型":         models.ColAssetType,
	"asset_type":   models.ColAssetType,
	"渠道名称":         models.ColChannelName,
	"channel_name": models.ColChannelName,
	"channel":      models.ColChannelName,
}

// columnKinds types the canonical columns; anything else is text.
var columnKinds = map[string]frame.Kind{
	models.ColScale:        frame.Currency,
	models.ColNAV:          frame.Number,
	models.ColHoldingRatio: frame.Number,
	models.ColMarketValue:  frame.Currency,
}

// sheetAliases lists the worksheet names each kind is read from. Kinds
// without an entry read the first worksheet.
var sheetAliases = map[models.Kind][]string{
	models.Positions: {"运作概览", "positions", "overview"},
	models.Holdings:  {"持仓明细", "holdings"},
}

// Canonical returns the canonical column for a source header. Unknown
// headers keep their trimmed text and report false.
func Canonical(header string) (string, bool) {
	h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	if c, ok := headerAliases[h]; ok {
		return c, true
	}
	if c, ok := headerAliases[strings.ToLower(h)]; ok {
		return c, true
	}
	return h, false
}

func kindOf(column string) frame.Kind {
	if k, ok := columnKinds[column]; ok {
		return k
	}
	return frame.Text
}
