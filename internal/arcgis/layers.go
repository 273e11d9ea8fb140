package arcgis

// Miami-Dade open-data FeatureServer layer paths, relative to the
// service base URL.
const (
	LayerZipBoundaries    = "ZipCode_gdb/FeatureServer/0"
	LayerPublicSchools    = "SchoolSite_gdb/FeatureServer/0"
	LayerCharterSchools   = "CharterSchool_gdb/FeatureServer/0"
	LayerPrivateSchools   = "PrivateSchool_gdb/FeatureServer/0"
	LayerClinics          = "FreeStandingClinic_gdb/FeatureServer/0"
	LayerMentalHealth     = "MentalHealthCenter_gdb/FeatureServer/0"
	LayerPoliceStations   = "PoliceStation_gdb/FeatureServer/0"
	LayerFireStations     = "FireStation_gdb/FeatureServer/0"
	LayerParks            = "Parks/FeatureServer/0"
	LayerLibraries        = "Library_gdb/FeatureServer/0"
	LayerBusStops         = "Bus_Stop_Maintenance_View_Layer/FeatureServer/1"
	LayerSchoolBusStops   = "MDCPSBusStop_gdb/FeatureServer/0"
	LayerFloodZones       = "FEMAFloodZone_gdb/FeatureServer/0"
	LayerEvacuationRoutes = "PrimaryEvacuationRoute_gdb/FeatureServer/0"
)
