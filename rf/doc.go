// Package rf provides the stateless complex-envelope primitives shared by the
// RF station components: a phase-preserving soft saturation and a static
// phase rotation.
//
// All signals are complex baseband envelopes. The real part is the in-phase
// component and the imaginary part is the quadrature component.
package rf
