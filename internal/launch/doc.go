// Package launch turns a press-hold-drag-release gesture into the mass and
// launch velocity of a new star.
//
// Mass grows with hold time on a square-root ease between the configured
// bounds. Velocity is the average pointer velocity over the trailing flick
// window, passed through a saturating speed compressor, scaled by launch
// strength and mass resistance, and finally nudged toward a circular orbit
// around nearby mass (angular guidance).
package launch
