package resource

import (
	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/model"
)

func col(key, heading, cell string, vt model.ValueType) model.ColumnMetaData {
	return model.ColumnMetaData{Key: key, Heading: heading, Type: cell, ValueType: vt}
}

func locked(c model.ColumnMetaData) model.ColumnMetaData {
	c.Locked = true
	return c
}

func dual(c model.ColumnMetaData, key2, suffix string) model.ColumnMetaData {
	c.Key2 = key2
	c.Suffix = suffix
	return c
}

// Channels is the channel list of the node.
var Channels = &Resource{
	Page:         "channel",
	Endpoint:     "channels",
	DefaultTitle: "Default View",
	Columns: []model.ColumnMetaData{
		locked(col("peerAlias", "Peer Alias", "AliasCell", model.ValueString)),
		col("active", "Active", "BooleanCell", model.ValueBoolean),
		col("balance", "Balance", "BalanceCell", model.ValueNumber),
		col("shortChannelId", "Short Channel ID", "LongTextCell", model.ValueString),
		col("remotePubkey", "Remote Public Key", "LongTextCell", model.ValueString),
		col("remoteBalance", "Remote Balance", "NumericCell", model.ValueNumber),
		col("localBalance", "Local Balance", "NumericCell", model.ValueNumber),
		col("capacity", "Capacity", "NumericCell", model.ValueNumber),
		dual(col("feeRateMilliMsat", "Fee rate (PPM)", "NumericDoubleCell", model.ValueNumber), "remoteFeeRateMilliMsat", "ppm"),
		dual(col("feeBaseMsat", "Base Fee Msat", "NumericDoubleCell", model.ValueNumber), "remoteFeeBaseMsat", "msat"),
		dual(col("minHtlcMsat", "Minimum HTLC", "NumericDoubleCell", model.ValueNumber), "remoteMinHtlcMsat", "msat"),
		dual(col("maxHtlcMsat", "Maximum HTLC Amount", "NumericDoubleCell", model.ValueNumber), "remoteMaxHtlcMsat", "sat"),
		col("timeLockDelta", "Time Lock Delta", "NumericCell", model.ValueNumber),
		col("lndShortChannelId", "LND Short Channel ID", "LongTextCell", model.ValueString),
		col("fundingTransactionHash", "Funding Transaction", "LongTextCell", model.ValueString),
		col("unsettledBalance", "Unsettled Balance", "NumericCell", model.ValueNumber),
		col("totalSatoshisSent", "Satoshis Sent", "NumericCell", model.ValueNumber),
		col("totalSatoshisReceived", "Satoshis Received", "NumericCell", model.ValueNumber),
		col("pendingForwardingHTLCsCount", "Pending Forwarding HTLCs count", "NumericCell", model.ValueNumber),
		col("pendingForwardingHTLCsAmount", "Pending Forwarding HTLCs", "NumericCell", model.ValueNumber),
		col("pendingLocalHTLCsCount", "Pending Local HTLCs count", "NumericCell", model.ValueNumber),
		col("pendingLocalHTLCsAmount", "Pending Local HTLCs", "NumericCell", model.ValueNumber),
		col("pendingTotalHTLCsCount", "Total Pending HTLCs count", "NumericCell", model.ValueNumber),
		col("pendingTotalHTLCsAmount", "Total Pending HTLCs", "NumericCell", model.ValueNumber),
		col("commitFee", "Commit Fee", "NumericCell", model.ValueNumber),
		col("nodeName", "Node Name", "AliasCell", model.ValueString),
		col("mempoolSpace", "Mempool", "LinkCell", model.ValueLink),
		col("ambossSpace", "Amboss", "LinkCell", model.ValueLink),
		col("oneMl", "1ML", "LinkCell", model.ValueLink),
	},
	DefaultColumns: []string{
		"peerAlias", "active", "balance", "feeRateMilliMsat", "feeBaseMsat",
		"minHtlcMsat", "maxHtlcMsat", "shortChannelId", "nodeName",
	},
	SortableColumns: []string{
		"active", "peerAlias", "shortChannelId", "feeRateMilliMsat", "remoteBalance",
		"localBalance", "capacity", "totalSatoshisSent", "totalSatoshisReceived",
		"unsettledBalance", "commitFee", "feeBaseMsat", "minHtlcMsat", "maxHtlcMsat", "nodeName",
	},
	FilterTemplate: filter.Document{Type: string(filter.CategoryNumber), Key: "capacity", FuncName: filter.FuncGte, Parameter: 0.0},
	SortTemplate:   model.SortBy{Key: "peerAlias", Direction: model.Asc},
	DefaultSort:    model.SortSpec{{Key: "peerAlias", Direction: model.Asc}},
	GroupAliases:   map[string]string{"peers": "remotePubkey"},
	NoGroup:        "channels",
}

// Forwards is the per-channel forwarding summary for a date range.
var Forwards = &Resource{
	Page:         "forwards",
	Endpoint:     "channels",
	DateRange:    true,
	DefaultTitle: "Default View",
	Columns: []model.ColumnMetaData{
		locked(col("alias", "Name", "AliasCell", model.ValueString)),
		col("revenueOut", "Revenue", "BarCell", model.ValueNumber),
		col("capacity", "Capacity", "NumericCell", model.ValueNumber),
		col("amountOut", "Amount outbound", "BarCell", model.ValueNumber),
		col("amountIn", "Amount inbound", "BarCell", model.ValueNumber),
		col("amountTotal", "Amount total", "BarCell", model.ValueNumber),
		col("turnoverOut", "Turnover outbound", "NumericCell", model.ValueNumber),
		col("turnoverIn", "Turnover inbound", "NumericCell", model.ValueNumber),
		col("turnoverTotal", "Turnover total", "NumericCell", model.ValueNumber),
		col("countOut", "Successful outbound", "BarCell", model.ValueNumber),
		col("countIn", "Successful inbound", "BarCell", model.ValueNumber),
		col("countTotal", "Successful total", "BarCell", model.ValueNumber),
		col("revenueIn", "Contributed revenue inbound", "BarCell", model.ValueNumber),
		col("revenueTotal", "Contributed revenue total", "BarCell", model.ValueNumber),
		col("pubKey", "Public key", "TextCell", model.ValueString),
		col("channelPoint", "Channel point", "TextCell", model.ValueString),
		col("shortChannelId", "Channel short ID", "TextCell", model.ValueString),
		col("lndShortChannelId", "LND Channel short ID", "TextCell", model.ValueString),
		col("open", "Open Channel", "BooleanCell", model.ValueBoolean),
	},
	DefaultColumns: []string{
		"alias", "revenueOut", "capacity", "amountOut", "amountIn", "amountTotal",
		"turnoverOut", "turnoverIn", "turnoverTotal", "countOut", "countIn", "countTotal",
	},
	SortableColumns: []string{
		"alias", "revenueOut", "revenueIn", "revenueTotal", "capacity", "amountOut", "amountIn",
		"amountTotal", "turnoverOut", "turnoverIn", "turnoverTotal", "countOut", "countIn",
		"countTotal", "open",
	},
	FilterTemplate: filter.Document{Type: string(filter.CategoryNumber), Key: "revenueOut", FuncName: filter.FuncGte, Parameter: 0.0},
	SortTemplate:   model.SortBy{Key: "revenueOut", Direction: model.Desc},
	DefaultSort:    model.SortSpec{{Key: "revenueOut", Direction: model.Desc}},
	GroupAliases:   map[string]string{"peers": "pubKey"},
	NoGroup:        "channels",
}

// Invoices lists invoices created by the node.
var Invoices = &Resource{
	Page:         "invoices",
	Endpoint:     "invoices",
	DateRange:    true,
	DefaultTitle: "Default View",
	Columns: []model.ColumnMetaData{
		col("creationDate", "Creation Date", "DateCell", model.ValueDate),
		col("settleDate", "Settle Date", "DateCell", model.ValueDate),
		col("invoiceState", "State", "TextCell", model.ValueArray),
		col("amtPaid", "Paid Amount", "NumericCell", model.ValueNumber),
		col("memo", "memo", "TextCell", model.ValueString),
		col("value", "Invoice Amount", "NumericCell", model.ValueNumber),
		col("isRebalance", "Rebalance", "BooleanCell", model.ValueBoolean),
		col("isKeysend", "Keysend", "BooleanCell", model.ValueBoolean),
		col("destinationPubKey", "Destination", "TextCell", model.ValueString),
		col("isAmp", "AMP", "BooleanCell", model.ValueBoolean),
		col("fallbackAddr", "Fallback Address", "TextCell", model.ValueString),
		col("paymentAddr", "Payment Address", "TextCell", model.ValueString),
		col("paymentRequest", "Payment Request", "TextCell", model.ValueString),
		col("private", "Private", "BooleanCell", model.ValueBoolean),
		col("rHash", "Hash", "TextCell", model.ValueString),
		col("rPreimage", "Preimage", "TextCell", model.ValueString),
		col("expiry", "Expiry", "NumericCell", model.ValueNumber),
		col("cltvExpiry", "CLTV Expiry", "NumericCell", model.ValueNumber),
		col("updatedOn", "Updated On", "DateCell", model.ValueDate),
	},
	DefaultColumns: []string{
		"creationDate", "settleDate", "invoiceState", "amtPaid", "memo", "value",
		"isRebalance", "isKeysend", "destinationPubKey",
	},
	SortableColumns: []string{
		"creationDate", "settleDate", "invoiceState", "amtPaid", "memo", "value",
		"isRebalance", "isKeysend", "destinationPubKey", "isAmp", "fallbackAddr",
		"paymentAddr", "paymentRequest", "private", "rHash", "rPreimage", "expiry",
		"cltvExpiry", "updatedOn",
	},
	FilterTemplate: filter.Document{Type: string(filter.CategoryNumber), Key: "value", FuncName: filter.FuncGte, Parameter: 0.0},
	SortTemplate:   model.SortBy{Key: "creationDate", Direction: model.Desc},
	DefaultSort:    model.SortSpec{{Key: "creationDate", Direction: model.Desc}},
	GroupAliases:   map[string]string{"peers": "destinationPubKey"},
	NoGroup:        "invoices",
	EnumOptions: map[string][]string{
		"invoiceState": {"OPEN", "SETTLED", "CANCELED", "ACCEPTED"},
	},
}

// Payments lists payments sent by the node.
var Payments = &Resource{
	Page:         "payments",
	Endpoint:     "payments",
	DateRange:    true,
	DefaultTitle: "Default View",
	Columns: []model.ColumnMetaData{
		col("date", "Date", "DateCell", model.ValueDate),
		col("status", "Status", "TextCell", model.ValueArray),
		col("value", "Value", "NumericCell", model.ValueNumber),
		col("fee", "Fee", "NumericCell", model.ValueNumber),
		col("ppm", "PPM", "NumericCell", model.ValueNumber),
		col("isRebalance", "Rebalance", "BooleanCell", model.ValueBoolean),
		col("isMpp", "MPP", "BooleanCell", model.ValueBoolean),
		col("secondsInFlight", "Seconds In Flight", "DurationCell", model.ValueNumber),
		col("failureReason", "Failure Reason", "TextCell", model.ValueArray),
		col("countFailedAttempts", "Failed Attempts", "NumericCell", model.ValueNumber),
		col("countSuccessfulAttempts", "Successful Attempts", "NumericCell", model.ValueNumber),
		col("destinationPubKey", "Destination", "TextCell", model.ValueString),
		col("paymentHash", "Payment Hash", "TextCell", model.ValueString),
		col("paymentPreimage", "Payment Preimage", "TextCell", model.ValueString),
	},
	DefaultColumns: []string{
		"date", "status", "value", "fee", "ppm", "isRebalance", "secondsInFlight", "failureReason",
	},
	SortableColumns: []string{
		"date", "status", "value", "fee", "ppm", "isRebalance", "isMpp", "secondsInFlight",
		"failureReason", "countFailedAttempts", "countSuccessfulAttempts",
	},
	FilterTemplate: filter.Document{Type: string(filter.CategoryNumber), Key: "value", FuncName: filter.FuncGte, Parameter: 0.0},
	SortTemplate:   model.SortBy{Key: "date", Direction: model.Desc},
	DefaultSort:    model.SortSpec{{Key: "date", Direction: model.Desc}},
	GroupAliases:   map[string]string{"peers": "destinationPubKey"},
	NoGroup:        "payments",
	EnumOptions: map[string][]string{
		"status":        {"SUCCEEDED", "FAILED", "IN_FLIGHT"},
		"failureReason": {"FAILURE_REASON_NONE", "FAILURE_REASON_TIMEOUT", "FAILURE_REASON_NO_ROUTE", "FAILURE_REASON_INSUFFICIENT_BALANCE"},
	},
}
