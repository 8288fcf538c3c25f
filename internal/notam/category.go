package notam

// Category classifies a NOTAM by its Q-code subject for briefing display.
// The set is closed; unmapped subjects fall back to CategoryOther.
type Category string

const (
	CategoryAirspace      Category = "airspace"
	CategoryRunway        Category = "runway"
	CategoryTaxiway       Category = "taxiway"
	CategoryApron         Category = "apron"
	CategoryAerodrome     Category = "aerodrome"
	CategoryNavaid        Category = "navaid"
	CategoryCommunication Category = "communication"
	CategoryLighting      Category = "lighting"
	CategoryProcedure     Category = "procedure"
	CategoryObstacle      Category = "obstacle"
	CategoryWarning       Category = "warning"
	CategoryService       Category = "service"
	CategoryChecklist     Category = "checklist"
	CategoryOther         Category = "other"
)

// subjectCategories maps the two-letter Q-code subject to a category.
// Only subjects that matter for briefing grouping are listed; everything
// else goes through the first-letter heuristic.
var subjectCategories = map[string]Category{
	// Movement and landing area.
	"MR": CategoryRunway,
	"MS": CategoryRunway, // Stopway.
	"MT": CategoryRunway, // Threshold.
	"MU": CategoryRunway, // Runway turning bay.
	"MW": CategoryRunway, // Strip/shoulder.
	"MD": CategoryRunway, // Declared distances.
	"MX": CategoryTaxiway,
	"MY": CategoryTaxiway, // Rapid exit taxiway.
	"MK": CategoryApron,   // Parking area.
	"MN": CategoryApron,
	"MP": CategoryApron, // Aircraft stands.

	// Facilities and services.
	"FA": CategoryAerodrome,
	"FF": CategoryService, // Fire and rescue.
	"FU": CategoryService, // Fuel availability.
	"FS": CategoryService, // Snow removal.
	"FM": CategoryService, // Met service.

	// Lighting.
	"LR": CategoryLighting, // Runway edge lights.
	"LC": CategoryLighting, // Centre line lights.
	"LT": CategoryLighting, // Threshold lights.
	"LA": CategoryLighting, // Approach lighting system.
	"LP": CategoryLighting, // PAPI.
	"LV": CategoryLighting, // VASIS.
	"LX": CategoryLighting, // Taxiway centre line lights.
	"LY": CategoryLighting, // Taxiway edge lights.

	// Navaids and surveillance.
	"IC": CategoryNavaid, // ILS.
	"ID": CategoryNavaid, // ILS DME.
	"IG": CategoryNavaid, // Glide path.
	"IL": CategoryNavaid, // ILS localizer.
	"NB": CategoryNavaid, // NDB.
	"NV": CategoryNavaid, // VOR.
	"ND": CategoryNavaid, // DME.
	"NT": CategoryNavaid, // TACAN.
	"NM": CategoryNavaid, // VOR/DME.
	"NN": CategoryNavaid, // TACAN/VORTAC.
	"GW": CategoryNavaid, // GNSS airfield-specific.
	"GA": CategoryNavaid, // GNSS area-wide.

	// Communications.
	"CA": CategoryCommunication, // Air/ground facility.
	"CE": CategoryCommunication, // En-route surveillance radar.
	"CS": CategoryCommunication, // Secondary surveillance radar.
	"CT": CategoryCommunication, // Terminal surveillance radar.

	// Airspace organisation and restrictions.
	"RA": CategoryAirspace, // Airspace reservation.
	"RD": CategoryAirspace, // Danger area.
	"RM": CategoryAirspace, // Military operating area.
	"RO": CategoryAirspace, // Overflying.
	"RP": CategoryAirspace, // Prohibited area.
	"RR": CategoryAirspace, // Restricted area.
	"RT": CategoryAirspace, // Temporary restricted area.
	"AA": CategoryAirspace, // Minimum altitude.
	"AC": CategoryAirspace, // CTR.
	"AE": CategoryAirspace, // CTA.
	"AF": CategoryAirspace, // FIR.
	"AH": CategoryAirspace, // Upper control area.
	"AT": CategoryAirspace, // TMA.
	"AX": CategoryAirspace, // Significant point.

	// Procedures.
	"PA": CategoryProcedure, // SID.
	"PB": CategoryProcedure, // Standard VFR arrival.
	"PD": CategoryProcedure, // STAR.
	"PH": CategoryProcedure, // Holding.
	"PI": CategoryProcedure, // Instrument approach.
	"PU": CategoryProcedure, // Missed approach.

	// Warnings.
	"OB": CategoryObstacle,
	"OL": CategoryObstacle, // Obstacle lights.
	"WA": CategoryWarning,  // Air display.
	"WB": CategoryWarning,  // Aerobatics.
	"WC": CategoryWarning,  // Captive balloon.
	"WD": CategoryWarning,  // Demolition of explosives.
	"WE": CategoryWarning,  // Exercises.
	"WF": CategoryWarning,  // Air refueling.
	"WG": CategoryWarning,  // Glider flying.
	"WH": CategoryWarning,  // Blasting.
	"WJ": CategoryWarning,  // Banner towing.
	"WL": CategoryWarning,  // Ascent of free balloon.
	"WM": CategoryWarning,  // Missile/gun firing.
	"WP": CategoryWarning,  // Parachute jumping.
	"WU": CategoryWarning,  // Unmanned aircraft.
	"WV": CategoryWarning,  // Formation flight.
	"WW": CategoryWarning,  // Volcanic activity.
	"WZ": CategoryWarning,  // Model flying.

	// Other.
	"KK": CategoryChecklist,
	"XX": CategoryOther,
}

// CategoryForSubject returns the category for a two-letter Q-code subject.
// Unmapped subjects use the ICAO first-letter grouping as a heuristic.
func CategoryForSubject(subject string) Category {
	if len(subject) < 2 {
		return CategoryOther
	}
	subject = subject[:2]
	if c, ok := subjectCategories[subject]; ok {
		return c
	}
	switch subject[0] {
	case 'A', 'R':
		return CategoryAirspace
	case 'C':
		return CategoryCommunication
	case 'F':
		return CategoryService
	case 'I', 'N', 'G':
		return CategoryNavaid
	case 'L':
		return CategoryLighting
	case 'M':
		return CategoryRunway
	case 'W':
		return CategoryWarning
	case 'P':
		return CategoryProcedure
	case 'S':
		return CategoryService
	case 'K':
		return CategoryChecklist
	default:
		return CategoryOther
	}
}
