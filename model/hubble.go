package model

// Hubble-constant rescaling. Simulation outputs carry masses and lengths in
// units with the dimensionless Hubble parameter h folded in (Mvir in
// 1e10 Msun/h, Pos in Mpc/h, and so on). ScaleLittleH divides those fields
// by h so downstream analysis sees h-free values. Velocities, spins,
// identifiers and flags carry no h dependence and are left untouched.
//
// The value of h is an explicit argument on every call; there is no
// process-wide default.

// ScaleLittleH returns a copy of g with all h-dependent fields divided by h.
// h <= 0 or h == 1 returns g unchanged.
func ScaleLittleH(g Galaxy, h float64) Galaxy {
	if h <= 0 || h == 1 {
		return g
	}
	inv := float32(1 / h)

	g.Pos[0] *= inv
	g.Pos[1] *= inv
	g.Pos[2] *= inv

	g.Mvir *= inv
	g.Rvir *= inv
	g.FOFMvir *= inv
	g.HotGas *= inv
	g.MetalsHotGas *= inv
	g.ColdGas *= inv
	g.MetalsColdGas *= inv
	g.Mcool *= inv
	g.StellarMass *= inv
	g.GrossStellarMass *= inv
	g.BlackHoleMass *= inv
	g.DiskScaleLength *= inv
	g.MergTime *= inv

	return g
}

// ScaleAllLittleH rescales every record in place.
func ScaleAllLittleH(gals []Galaxy, h float64) {
	if h <= 0 || h == 1 {
		return
	}
	for i := range gals {
		gals[i] = ScaleLittleH(gals[i], h)
	}
}
