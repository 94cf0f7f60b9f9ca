package internal

type Marketplace string

const (
	MarketplaceAmazon   Marketplace = "amazon"
	MarketplaceFlipkart Marketplace = "flipkart"
)

type ItemSource string

const (
	SourcePDF      ItemSource = "pdf"
	SourceManifest ItemSource = "manifest"
)

// InvoiceItem is one extracted product occurrence: an ASIN hit on an Amazon
// invoice page, a SKU row in a Flipkart label table, or a manifest row from
// an order email.
type InvoiceItem struct {
	DocIndex      int
	Page          int
	Line          int
	Source        ItemSource
	Marketplace   Marketplace
	RawIdentifier string
	Name          string
	WeightRaw     string
	Qty           int
	OrderID       string
	AWB           string
}

// CatalogRow is one master-catalog product row after column resolution.
// Index is the source row number and serves as the stable tiebreaker.
type CatalogRow struct {
	Index        int
	Item         string
	Weight       string
	PacketSize   string
	PacketUsed   string
	ASIN         string
	FkSKU        string
	MRef         string
	MRP          string
	FNSKU        string
	FSSAI        string
	SplitInto    string
	ProductLabel string
}

type MatchStatus string

const (
	Matched   MatchStatus = "MATCHED"
	Unmatched MatchStatus = "UNMATCHED"
)

// MatchResult records the cascade outcome for one item. Strategy names the
// rule that produced the match and is empty only when Status is Unmatched.
type MatchResult struct {
	Status     MatchStatus
	Strategy   string
	Row        *CatalogRow
	Candidates []CatalogRow
}

// OrderLine aggregates items that resolved to the same product. Unmatched
// items keep their raw identifier as the grouping key so they never merge
// with matched lines.
type OrderLine struct {
	Key           string
	Row           *CatalogRow
	RawIdentifier string
	Name          string
	Weight        string
	Qty           int
	Marketplace   Marketplace
	Strategy      string
	Pages         []int
}

type PlanStatus string

const (
	PlanReady         PlanStatus = "READY"
	PlanMissingFNSKU  PlanStatus = "MISSING_FNSKU"
	PlanMissingMaster PlanStatus = "MISSING_FROM_MASTER"
)

// Issue strings appear verbatim in plan exports.
const (
	IssueNotFound     = "Not found in master file"
	IssueMissingFNSKU = "Missing FNSKU"
	IssueSplitMissing = "Split sizes not found in master file"
)

// PlanLine is one physical packing instruction.
type PlanLine struct {
	Item         string
	Weight       string
	PacketSize   string
	PacketUsed   string
	ASIN         string
	MRP          string
	FNSKU        string
	FSSAI        string
	ProductLabel string
	SplitFrom    string
	Qty          int
	Status       PlanStatus
	Issue        string
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// RunRecord is the persisted summary of one processing run.
type RunRecord struct {
	ID          int
	TraceID     string
	PlanPath    string
	CountsJSON  string
	TimingsJSON string
	ErrorsJSON  string
	DocsJSON    string
	CreatedAt   string
}
