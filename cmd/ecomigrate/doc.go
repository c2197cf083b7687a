// Command ecomigrate builds ecoinvent migration datapackages.
//
// Subcommands:
//
//	technosphere  map activity datasets between two releases
//	biosphere     map elementary flows between two releases
//	cache         list or clear parsed releases
//	patches       list builtin and user patches
//	config        create or validate the configuration file
//	doctor        run preflight checks
//
// Exit codes: 0 success (including nothing to do), 1 general failure,
// 2 configuration error, 3 input data error.
package main
