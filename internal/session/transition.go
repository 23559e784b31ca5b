package session

// LongRestEvery is the number of completed work sessions between long rests.
const LongRestEvery = 5

// Transition describes the move from an expired session to the next one.
type Transition struct {
	From          Kind
	To            Kind
	CompletedWork int
}

// Next computes the session that follows an expired session of kind k.
// completed is the number of work sessions finished before k expired.
func Next(k Kind, completed int) (Kind, int) {
	if k != Work {
		return Work, completed
	}
	completed++
	if completed%LongRestEvery == 0 {
		return LongRest, completed
	}
	return ShortRest, completed
}
