package outstanding

import "github.com/shopspring/decimal"

// Bucket is an inclusive range of invoice ages in days. Max < 0 means unbounded.
type Bucket struct {
	Name string
	Min  int
	Max  int
}

// NumBuckets is the number of aging buckets.
const NumBuckets = 11

// Buckets are contiguous and cover [0, ∞).
var Buckets = [NumBuckets]Bucket{
	{Name: "0-15", Min: 0, Max: 15},
	{Name: "16-30", Min: 16, Max: 30},
	{Name: "31-45", Min: 31, Max: 45},
	{Name: "46-60", Min: 46, Max: 60},
	{Name: "61-90", Min: 61, Max: 90},
	{Name: "91-120", Min: 91, Max: 120},
	{Name: "121-150", Min: 121, Max: 150},
	{Name: "151-180", Min: 151, Max: 180},
	{Name: "181-365", Min: 181, Max: 365},
	{Name: "366-730", Min: 366, Max: 730},
	{Name: "Above_730", Min: 731, Max: -1},
}

// above180From is the index of the first bucket rolled up into Above_180.
const above180From = 8

// Payment recency windows, in days.
const (
	recentPaymentsMax = 15
	olderPaymentsMax  = 90
)

// BucketIndex returns the bucket holding an invoice aged days. Negative ages count as 0.
func BucketIndex(days int) int {
	if days < 0 {
		days = 0
	}
	for i, b := range Buckets {
		if b.Max < 0 || days <= b.Max {
			return i
		}
	}
	return NumBuckets - 1
}

// BucketNames returns the bucket names in order.
func BucketNames() []string {
	names := make([]string, NumBuckets)
	for i, b := range Buckets {
		names[i] = b.Name
	}
	return names
}

// round2 rounds half away from zero to cents, which is half-up for the
// non-negative amounts this report deals with.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
