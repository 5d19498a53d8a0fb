package rental

const (
	TopicRentalCreated  = "rental.created"
	TopicRentalRejected = "rental.rejected"
)

// Partition key = customer_id, supaya semua event 1 customer maintain urutan.
func PartitionKey(customerID string) []byte { return []byte(customerID) }
