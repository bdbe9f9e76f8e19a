// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package bels lowers FPGA configuration features into a structural netlist of
bels placed in physical sites.

Features are named configuration bits such as

	CLK_HROW_TOP_R_X60Y130.BUFHCE.BUFHCE_X0Y5.IN_USE

They are grouped per tile and handed to the process functions registered for
the tile type. A process function groups the features by primitive instance,
locates the physical site of each instance, decodes its parameters and builds
the site's routing graph: external site pins, bel pins and the synthetic pips
of inversion paths.

Once every tile has been built, Netlist.Cleanup runs the post-placement
passes attached to sites. These may simplify a site when global signal values
prove that one of its bels is a plain pass-through.

The primitive families themselves live in the bellib package.
*/
package bels
