// Package domain models synthetic InSAR deformation measurements.
//
// # Data Model
//
// A [Measurement] is one observation of one spatial point at one time step.
// The generator draws a fixed layout of points over the [DomainMin, DomainMax]
// square and re-observes the same layout at every step, so point identity is
// stable across time: record i of step t and record i of step t+1 share
// coordinates.
//
// A [RecordSet] is the whole collection, ordered by time step and then by
// point-generation order, together with the list of columns populated so far.
// Downstream stages mutate the set in place by filling derived fields and
// registering the corresponding column names; rows are never removed. Column
// tracking is what makes prediction-time schema checks possible — a struct
// field always exists, but a column only counts once the stage that computes
// it has run.
//
// # Phase Convention
//
// Interferometric phase is ambiguous modulo one full cycle. [WrapPhase]
// reduces a raw phase value into the half-open interval (-pi, pi] the way
// interferogram formation does: reduce modulo 2*pi into [0, 2*pi), then
// subtract 2*pi from values above pi. Every generated phase satisfies this
// bound at the moment of wrapping. The atmospheric screen is added after
// wrapping and may push the stored phase slightly outside the interval —
// that models unmodeled atmospheric delay and is intentional.
//
// # Units
//
// Coordinates and distances are in arbitrary domain units, phase in radians,
// deformation in the same (synthetic) units as phase before wrapping. Time is
// a bare step index, 0-based.
package domain
