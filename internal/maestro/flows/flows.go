package flows

import maestro "carhub/internal/maestro/core"

const (
	FleetAvailabilityFlow = "fleet_availability"
	PublicRentalFlow      = "public_rental"
	ResellerBookingFlow   = "reseller_booking"
)

func FleetAvailability() maestro.Flow {
	return maestro.NewFlow(FleetAvailabilityFlow,
		maestro.NewStep("parse_input", ParseWindowInput),
		maestro.NewStep("fleet_availability", FetchFleetAvailability),
		maestro.NewStep("organize_output", OrganizeFleetOutput),
	)
}

func PublicRental() maestro.Flow {
	return maestro.NewFlow(PublicRentalFlow,
		maestro.NewStep("parse_input", ParsePublicRentalInput),
		maestro.NewStep("fleet_availability", FetchFleetAvailability),
		maestro.NewStep("select_vehicle", SelectVehicle),
		maestro.NewStep("quote", QuoteBooking),
		maestro.NewStep("submit_booking", SubmitBooking),
	)
}

func ResellerBooking() maestro.Flow {
	return maestro.NewFlow(ResellerBookingFlow,
		maestro.NewStep("parse_input", ParseResellerBookingInput),
		maestro.NewStep("reseller_lookup", LookupReseller),
		maestro.NewStep("fleet_availability", FetchFleetAvailability),
		maestro.NewStep("select_vehicle", SelectVehicle),
		maestro.NewStep("quote", QuoteBooking),
		maestro.NewStep("submit_booking", SubmitBooking),
	)
}

// All returns every flow maestro serves.
func All() []maestro.Flow {
	return []maestro.Flow{FleetAvailability(), PublicRental(), ResellerBooking()}
}
