// Package storm estimates the behaviour of a randomized bolt bombardment
// confined to a circular storm area.
//
// The engine runs independent Monte Carlo trials. Each trial scatters two
// classes of bolts, ordinary and improved, uniformly over the storm disk and
// measures two things: how many bolts of each class land close enough to a
// set of concentric hitboxes for their blast to overlap them, and what
// fraction of the storm's area is covered by at least one blast of each
// class. Per-trial measurements reduce to a mean and a standard error of the
// mean for every tracked quantity.
//
// Every invocation is a stateless, synchronous batch computation: all
// randomness flows from an explicit seed or an injected generator, and the
// engine holds no state between calls.
package storm
