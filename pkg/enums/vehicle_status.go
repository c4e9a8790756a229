package enums

import "fmt"

// VehicleStatus tracks a listed vehicle through approval, auction and sale.
type VehicleStatus string

const (
	VehicleStatusPending  VehicleStatus = "PENDING"
	VehicleStatusApproved VehicleStatus = "APPROVED"
	VehicleStatusAuction  VehicleStatus = "AUCTION"
	VehicleStatusSold     VehicleStatus = "SOLD"
	VehicleStatusRejected VehicleStatus = "REJECTED"
)

var validVehicleStatuses = []VehicleStatus{
	VehicleStatusPending,
	VehicleStatusApproved,
	VehicleStatusAuction,
	VehicleStatusSold,
	VehicleStatusRejected,
}

// String implements fmt.Stringer.
func (v VehicleStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VehicleStatus.
func (v VehicleStatus) IsValid() bool {
	for _, candidate := range validVehicleStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVehicleStatus converts raw input into a VehicleStatus.
func ParseVehicleStatus(value string) (VehicleStatus, error) {
	for _, candidate := range validVehicleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle status %q", value)
}
