package models

// Canonical column names every loader maps its source headers onto.
const (
	ColDate         = "date"
	ColCode         = "code"
	ColName         = "name"
	ColCategory     = "category"
	ColScale        = "scale"
	ColNAV          = "nav"
	ColHoldingRatio = "holding_ratio"
	ColMarketValue  = "market_value"
	ColAssetType    = "asset_type"
	ColChannelName  = "channel_name"
)

// Derived column names.
const (
	ColShare           = "share"
	ColShareOfTotal    = "share_of_total"
	ColShareOfCategory = "share_of_category"
	ColCategoryScale   = "category_scale"
	ColReferenceScale  = "reference_scale"
	ColAdjustedScale   = "adjusted_scale"
	ColOverridden      = "overridden"
	ColChannel         = "channel"
	ColAssetClass      = "asset_class"
	ColHoldingAmount   = "holding_amount"
	ColProductScale    = "product_scale"
	ColAbsChange       = "abs_change"
)

// TotalLabel is the group label of the synthetic total row.
const TotalLabel = "Total"
