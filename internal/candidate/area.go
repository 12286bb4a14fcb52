package candidate

import "math"

// quantityForLevel computes, for a field of fieldArea and a crop whose
// plants each take areaPerUnit, the area actually used at the given
// quantity ratio and the integer quantity it corresponds to: floors a
// continuous area computation down to a whole-unit count.
func quantityForLevel(fieldArea, areaPerUnit, ratio float64) (areaUsed float64, quantity int) {
	targetArea := ratio * fieldArea
	quantity = int(math.Floor(targetArea / areaPerUnit))
	if quantity <= 0 {
		return 0, 0
	}
	return float64(quantity) * areaPerUnit, quantity
}
