/*
DESCRIPTION
  doc.go documents package capture.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package capture provides a Source reading video through OpenCV. Without
// the withcv build tag the source cannot be started.
package capture
