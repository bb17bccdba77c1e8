package trains

// SelectCrossingTime applies the stop/pass precedence shared by the realtime
// and timetable paths. Public times make it a stopping train with the
// departure preferred, a working pass time a passing one, and failing both the
// working departure or arrival stands in as a passing time. An empty result
// means the location carries no usable time at all.
func SelectCrossingTime(publicArrival, publicDeparture, workingArrival, workingDeparture, workingPass string) (TrainKind, string) {
	if publicArrival != "" || publicDeparture != "" {
		timeValue := publicDeparture
		if timeValue == "" {
			timeValue = publicArrival
		}

		return KindStopping, timeValue
	}

	if workingPass != "" {
		return KindPassing, workingPass
	}

	timeValue := workingDeparture
	if timeValue == "" {
		timeValue = workingArrival
	}

	return KindPassing, timeValue
}
